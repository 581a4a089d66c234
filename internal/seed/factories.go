// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"murmur/internal/auth"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker

	hashOnce sync.Once
	hash     string
	hashErr  error

	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// Options.Seed picks a time based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

// passwordHash hashes DefaultPassword once per factory.
func (f *Factory) passwordHash() (string, error) {
	f.hashOnce.Do(func() {
		f.hash, f.hashErr = auth.HashPassword(DefaultPassword)
	})
	return f.hash, f.hashErr
}

// BuildUser constructs a user with a profile without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.seq++
	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := usernameFor(first, last, f.seq)

	gender := models.GenderFemale
	if f.faker.Bool() {
		gender = models.GenderMale
	}

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Profile: &models.Profile{
			FirstName: first,
			LastName:  last,
			Gender:    &gender,
			City:      f.faker.City(),
			Bio:       f.faker.Sentence(10),
			Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
		},
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if user.Password == "" {
		hash, err := f.passwordHash()
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		user.Password = hash
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		middleware.Logger.Info("[dry-run] CreateUser", slog.String("username", user.Username))
		return user, nil
	}

	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by author without persisting it. CreatedAt is
// spread over the last Options.MaxDays days.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	created := time.Now().Add(-time.Duration(f.faker.Number(0, maxDays*24*60-1)) * time.Minute)

	post := &models.Post{
		AuthorID:  author.ID,
		Content:   f.faker.Paragraph(1, f.faker.Number(1, 4), 10, " "),
		CreatedAt: created,
		UpdatedAt: created,
	}

	switch n := f.faker.Number(0, 9); {
	case n < 3:
		post.Attachments = []models.Attachment{{
			URL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
			Type: models.AttachmentImage,
		}}
	case n == 3:
		youtubeIDs := []string{"dQw4w9WgXcQ", "9bZkp7q19f0", "3JZ_D3ELwOQ", "L_jWHffIx5E", "kXYiU_JCYtU"}
		post.Attachments = []models.Attachment{{
			URL:  "https://www.youtube.com/watch?v=" + youtubeIDs[f.faker.Number(0, len(youtubeIDs)-1)],
			Type: models.AttachmentVideo,
		}}
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts, attachments included, in one
// call.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		middleware.Logger.Info("[dry-run] CreatePostsBatch", slog.Int("posts", len(posts)))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.WithContext(ctx).Omit("Author").CreateInBatches(posts, batch).Error
}

// CreatePost constructs and persists a sample post for author.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.CreatePostsBatch(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by user on post. Generated text is cut to
// the comment length limit.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    user.ID,
		Text:      truncateRunes(f.faker.Sentence(f.faker.Number(3, 12)), validation.MaxCommentLength),
		CreatedAt: f.after(post.CreatedAt),
	}
	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow persists a follow edge. Self follows and duplicates are
// skipped.
func (f *Factory) CreateFollow(ctx context.Context, follower, followee *models.User) error {
	if follower.ID == followee.ID || f.opts.DryRun {
		return nil
	}
	return f.insertIgnore(ctx, &models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID})
}

// CreateLike persists a like from user on post.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.insertIgnore(ctx, &models.Like{UserID: user.ID, PostID: post.ID, CreatedAt: f.after(post.CreatedAt)})
}

// CreateRepost persists a repost by user of post.
func (f *Factory) CreateRepost(ctx context.Context, user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	return f.insertIgnore(ctx, &models.Repost{UserID: user.ID, PostID: post.ID, CreatedAt: f.after(post.CreatedAt)})
}

func (f *Factory) insertIgnore(ctx context.Context, row any) error {
	return f.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

// after returns a time between t and now.
func (f *Factory) after(t time.Time) time.Time {
	span := time.Since(t)
	if span <= time.Minute {
		return time.Now()
	}
	return t.Add(time.Duration(f.faker.Number(1, int(span/time.Minute))) * time.Minute)
}

// usernameFor derives a valid, unique username from a name.
func usernameFor(first, last string, seq int) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				return unicode.ToLower(r)
			}
			return -1
		}, s)
	}
	var parts []string
	for _, p := range []string{clean(first), clean(last)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	base := strings.Join(parts, "_")
	if base == "" {
		base = "user"
	}
	if len(base) > 20 {
		base = strings.TrimRight(base[:20], "_")
	}
	return fmt.Sprintf("%s%d", base, seq)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
