package seed

import (
	"context"
	"fmt"
	"log/slog"

	"murmur/internal/middleware"
	"murmur/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	// Seed makes generated data reproducible. Zero means random.
	Seed      int64
	MaxDays   int
	BatchSize int
	// DryRun assigns synthetic IDs and writes nothing.
	DryRun bool
}

// Seeder populates a database with generated or fixture data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// cleanupTables lists tables children first.
var cleanupTables = []string{"comments", "reposts", "likes", "follows", "attachments", "posts", "profiles", "users"}

// ClearAll removes all application data.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	db := s.db.WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		sql := "TRUNCATE TABLE comments, reposts, likes, follows, attachments, posts, profiles, users RESTART IDENTITY CASCADE"
		return db.Exec(sql).Error
	}
	for _, table := range cleanupTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedSocialMesh creates count users, each following up to eight others.
func (s *Seeder) SeedSocialMesh(ctx context.Context, count int) ([]*models.User, error) {
	f := s.factory
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}

	edges := 0
	for _, u := range users {
		if len(users) < 2 {
			break
		}
		n := f.faker.Number(1, min(8, len(users)-1))
		for j := 0; j < n; j++ {
			target := users[f.faker.Number(0, len(users)-1)]
			if target.ID == u.ID {
				continue
			}
			if err := f.CreateFollow(ctx, u, target); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			edges++
		}
	}

	middleware.Logger.InfoContext(ctx, "seeded social mesh", slog.Int("users", len(users)), slog.Int("follows", edges))
	return users, nil
}

// SeedEngagement creates numPosts posts by random users and sprinkles likes,
// reposts and comments from the other users over them.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, numPosts int) ([]*models.Post, error) {
	if len(users) == 0 || numPosts <= 0 {
		return nil, nil
	}
	f := s.factory

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		posts = append(posts, f.BuildPost(users[f.faker.Number(0, len(users)-1)]))
	}
	if err := f.CreatePostsBatch(ctx, posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}

	var likes, reposts, comments int
	for _, p := range posts {
		for _, u := range users {
			if u.ID == p.AuthorID {
				continue
			}
			switch roll := f.faker.Number(0, 99); {
			case roll < 25:
				if err := f.CreateLike(ctx, u, p); err != nil {
					return nil, fmt.Errorf("create like: %w", err)
				}
				likes++
			case roll < 32:
				if err := f.CreateRepost(ctx, u, p); err != nil {
					return nil, fmt.Errorf("create repost: %w", err)
				}
				reposts++
			case roll < 40:
				if _, err := f.CreateComment(ctx, u, p); err != nil {
					return nil, fmt.Errorf("create comment: %w", err)
				}
				comments++
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "seeded engagement",
		slog.Int("posts", len(posts)),
		slog.Int("likes", likes),
		slog.Int("reposts", reposts),
		slog.Int("comments", comments),
	)
	return posts, nil
}
