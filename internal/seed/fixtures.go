package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"murmur/internal/auth"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures/demo.yaml
var demoFixtures []byte

// Fixtures is a hand-written dataset. Users are referenced by username and
// posts by their key.
type Fixtures struct {
	Password string           `yaml:"password"`
	Users    []FixtureUser    `yaml:"users"`
	Posts    []FixturePost    `yaml:"posts"`
	Follows  []FixtureFollow  `yaml:"follows"`
	Likes    []FixtureEdge    `yaml:"likes"`
	Reposts  []FixtureEdge    `yaml:"reposts"`
	Comments []FixtureComment `yaml:"comments"`
}

type FixtureUser struct {
	Username string         `yaml:"username"`
	Email    string         `yaml:"email"`
	Profile  FixtureProfile `yaml:"profile"`
}

type FixtureProfile struct {
	FirstName string `yaml:"firstName"`
	LastName  string `yaml:"lastName"`
	Gender    string `yaml:"gender"`
	City      string `yaml:"city"`
	Bio       string `yaml:"bio"`
	Avatar    string `yaml:"avatar"`
}

type FixturePost struct {
	Key         string              `yaml:"key"`
	Author      string              `yaml:"author"`
	Content     string              `yaml:"content"`
	CreatedAt   time.Time           `yaml:"createdAt"`
	Attachments []FixtureAttachment `yaml:"attachments"`
}

type FixtureAttachment struct {
	URL  string `yaml:"url"`
	Type string `yaml:"type"`
}

type FixtureFollow struct {
	Follower string `yaml:"follower"`
	Followee string `yaml:"followee"`
}

// FixtureEdge is a like or repost.
type FixtureEdge struct {
	User      string    `yaml:"user"`
	Post      string    `yaml:"post"`
	CreatedAt time.Time `yaml:"createdAt"`
}

type FixtureComment struct {
	User string `yaml:"user"`
	Post string `yaml:"post"`
	Text string `yaml:"text"`
}

// DemoFixtures returns the built-in demo dataset.
func DemoFixtures() (*Fixtures, error) {
	return LoadFixtures(bytes.NewReader(demoFixtures))
}

// LoadFixturesFile reads fixtures from a YAML file.
func LoadFixturesFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadFixtures(f)
}

// LoadFixtures decodes and validates fixtures. Unknown fields are rejected.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixtures) validate() error {
	var errs []error

	users := make(map[string]bool, len(fx.Users))
	for _, u := range fx.Users {
		if err := validation.ValidateUsername(u.Username); err != nil {
			errs = append(errs, fmt.Errorf("user %q: %w", u.Username, err))
		}
		if users[u.Username] {
			errs = append(errs, fmt.Errorf("user %q: duplicate", u.Username))
		}
		users[u.Username] = true
		if u.Profile.Gender != "" {
			if _, err := validation.ParseGender(u.Profile.Gender); err != nil {
				errs = append(errs, fmt.Errorf("user %q: %w", u.Username, err))
			}
		}
	}

	posts := make(map[string]bool, len(fx.Posts))
	for _, p := range fx.Posts {
		if p.Key == "" || posts[p.Key] {
			errs = append(errs, fmt.Errorf("post %q: missing or duplicate key", p.Key))
		}
		posts[p.Key] = true
		if !users[p.Author] {
			errs = append(errs, fmt.Errorf("post %q: unknown author %q", p.Key, p.Author))
		}
		for _, a := range p.Attachments {
			if !validAttachment(a.Type) {
				errs = append(errs, fmt.Errorf("post %q: bad attachment type %q", p.Key, a.Type))
			}
		}
	}

	for _, f := range fx.Follows {
		if !users[f.Follower] || !users[f.Followee] {
			errs = append(errs, fmt.Errorf("follow %s->%s: unknown user", f.Follower, f.Followee))
		}
		if f.Follower == f.Followee {
			errs = append(errs, fmt.Errorf("follow %s->%s: self follow", f.Follower, f.Followee))
		}
	}
	for _, e := range append(append([]FixtureEdge{}, fx.Likes...), fx.Reposts...) {
		if !users[e.User] || !posts[e.Post] {
			errs = append(errs, fmt.Errorf("interaction %s on %s: unknown reference", e.User, e.Post))
		}
	}
	for _, c := range fx.Comments {
		if !users[c.User] || !posts[c.Post] {
			errs = append(errs, fmt.Errorf("comment %s on %s: unknown reference", c.User, c.Post))
		}
		if _, err := validation.NormalizeComment(c.Text); err != nil {
			errs = append(errs, fmt.Errorf("comment %s on %s: %w", c.User, c.Post, err))
		}
	}
	return errors.Join(errs...)
}

func validAttachment(t string) bool {
	switch models.AttachmentType(t) {
	case models.AttachmentImage, models.AttachmentVideo, models.AttachmentAudio, models.AttachmentFile:
		return true
	}
	return false
}

// ApplyFixtures writes fixtures in one transaction. Users are created with
// the fixture password, or DefaultPassword when none is given.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) error {
	password := fx.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash fixture password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make(map[string]uint, len(fx.Users))
		for _, fu := range fx.Users {
			u := &models.User{
				Username: fu.Username,
				Email:    fu.Email,
				Password: hash,
				Profile: &models.Profile{
					FirstName: fu.Profile.FirstName,
					LastName:  fu.Profile.LastName,
					City:      fu.Profile.City,
					Bio:       fu.Profile.Bio,
					Avatar:    fu.Profile.Avatar,
				},
			}
			if fu.Profile.Gender != "" {
				g, _ := validation.ParseGender(fu.Profile.Gender)
				u.Profile.Gender = &g
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user %s: %w", fu.Username, err)
			}
			users[fu.Username] = u.ID
		}

		posts := make(map[string]*models.Post, len(fx.Posts))
		for _, fp := range fx.Posts {
			p := &models.Post{
				AuthorID:  users[fp.Author],
				Content:   fp.Content,
				CreatedAt: orNow(fp.CreatedAt),
			}
			p.UpdatedAt = p.CreatedAt
			for _, a := range fp.Attachments {
				p.Attachments = append(p.Attachments, models.Attachment{URL: a.URL, Type: models.AttachmentType(a.Type)})
			}
			if err := tx.Omit("Author").Create(p).Error; err != nil {
				return fmt.Errorf("create post %s: %w", fp.Key, err)
			}
			posts[fp.Key] = p
		}

		rows := make([]any, 0, len(fx.Follows)+len(fx.Likes)+len(fx.Reposts)+len(fx.Comments))
		for _, f := range fx.Follows {
			rows = append(rows, &models.Follow{FollowerID: users[f.Follower], FolloweeID: users[f.Followee]})
		}
		for _, e := range fx.Likes {
			rows = append(rows, &models.Like{UserID: users[e.User], PostID: posts[e.Post].ID, CreatedAt: orAfter(e.CreatedAt, posts[e.Post])})
		}
		for _, e := range fx.Reposts {
			rows = append(rows, &models.Repost{UserID: users[e.User], PostID: posts[e.Post].ID, CreatedAt: orAfter(e.CreatedAt, posts[e.Post])})
		}
		for i, c := range fx.Comments {
			text, _ := validation.NormalizeComment(c.Text)
			p := posts[c.Post]
			rows = append(rows, &models.Comment{
				UserID:    users[c.User],
				PostID:    p.ID,
				Text:      text,
				CreatedAt: p.CreatedAt.Add(time.Duration(i+1) * time.Minute),
			})
		}
		for _, row := range rows {
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "applied fixtures",
		slog.Int("users", len(fx.Users)),
		slog.Int("posts", len(fx.Posts)),
		slog.Int("follows", len(fx.Follows)),
		slog.Int("likes", len(fx.Likes)),
		slog.Int("reposts", len(fx.Reposts)),
		slog.Int("comments", len(fx.Comments)),
	)
	return nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// orAfter defaults an interaction time to one hour after the post.
func orAfter(t time.Time, p *models.Post) time.Time {
	if !t.IsZero() {
		return t
	}
	return p.CreatedAt.Add(time.Hour)
}
