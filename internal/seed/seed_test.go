package seed

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"murmur/internal/auth"
	"murmur/internal/models"
	"murmur/internal/testutil"
	"murmur/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(t *testing.T, s *Seeder, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Count(&n).Error)
	return n
}

func TestSeedSocialMeshAndEngagement(t *testing.T) {
	ctx := context.Background()
	s := NewSeeder(testutil.NewSQLiteDB(t), Options{Seed: 42, MaxDays: 30})

	users, err := s.SeedSocialMesh(ctx, 6)
	require.NoError(t, err)
	require.Len(t, users, 6)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.True(t, auth.ComparePassword(u.Password, DefaultPassword))
	}

	var selfFollows int64
	require.NoError(t, s.db.Model(&models.Follow{}).Where("follower_id = followee_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)
	assert.Positive(t, count(t, s, &models.Follow{}))

	posts, err := s.SeedEngagement(ctx, users, 20)
	require.NoError(t, err)
	require.Len(t, posts, 20)
	assert.EqualValues(t, 20, count(t, s, &models.Post{}))

	for _, p := range posts {
		assert.NotZero(t, p.ID)
		assert.WithinDuration(t, time.Now(), p.CreatedAt, 31*24*time.Hour)
	}

	var comments []models.Comment
	require.NoError(t, s.db.Find(&comments).Error)
	for _, c := range comments {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), validation.MaxCommentLength)
	}

	var ownLikes int64
	require.NoError(t, s.db.Table("likes").
		Joins("JOIN posts ON posts.id = likes.post_id").
		Where("posts.author_id = likes.user_id").
		Count(&ownLikes).Error)
	assert.Zero(t, ownLikes)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s := NewSeeder(testutil.NewSQLiteDB(t), Options{Seed: 7})

	users, err := s.SeedSocialMesh(ctx, 3)
	require.NoError(t, err)
	_, err = s.SeedEngagement(ctx, users, 5)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))
	for _, m := range []any{&models.User{}, &models.Profile{}, &models.Post{}, &models.Follow{}, &models.Like{}, &models.Repost{}, &models.Comment{}, &models.Attachment{}} {
		assert.Zero(t, count(t, s, m))
	}
}

func TestApplyDemoFixtures(t *testing.T) {
	ctx := context.Background()
	s := NewSeeder(testutil.NewSQLiteDB(t), Options{})

	fx, err := DemoFixtures()
	require.NoError(t, err)
	require.NoError(t, s.ApplyFixtures(ctx, fx))

	assert.EqualValues(t, len(fx.Users), count(t, s, &models.User{}))
	assert.EqualValues(t, len(fx.Posts), count(t, s, &models.Post{}))
	assert.EqualValues(t, len(fx.Follows), count(t, s, &models.Follow{}))
	assert.EqualValues(t, len(fx.Likes), count(t, s, &models.Like{}))
	assert.EqualValues(t, len(fx.Reposts), count(t, s, &models.Repost{}))
	assert.EqualValues(t, len(fx.Comments), count(t, s, &models.Comment{}))
	assert.EqualValues(t, 3, count(t, s, &models.Attachment{}))

	var ada models.User
	require.NoError(t, s.db.Preload("Profile").Where("username = ?", "ada").First(&ada).Error)
	assert.True(t, auth.ComparePassword(ada.Password, fx.Password))
	require.NotNil(t, ada.Profile)
	require.NotNil(t, ada.Profile.Gender)
	assert.Equal(t, models.GenderFemale, *ada.Profile.Gender)

	var repost models.Repost
	require.NoError(t, s.db.Where("user_id = ?", ada.ID).First(&repost).Error)
	assert.Equal(t, 2024, repost.CreatedAt.Year())
	assert.Equal(t, time.March, repost.CreatedAt.Month())
	assert.Equal(t, 5, repost.CreatedAt.Day())
}

func TestLoadFixtures_RejectsBadReferences(t *testing.T) {
	doc := `
users:
  - username: ada
    email: ada@example.com
posts:
  - key: p1
    author: nobody
    content: hi
    attachments:
      - url: https://example.com/x
        type: GIF
follows:
  - {follower: ada, followee: ada}
comments:
  - {user: ada, post: p1, text: "   "}
`
	_, err := LoadFixtures(strings.NewReader(doc))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown author "nobody"`)
	assert.Contains(t, msg, `bad attachment type "GIF"`)
	assert.Contains(t, msg, "self follow")
}

func TestLoadFixtures_RejectsUnknownFields(t *testing.T) {
	_, err := LoadFixtures(strings.NewReader("users:\n  - username: ada\n    nickname: countess\n"))
	assert.Error(t, err)
}
