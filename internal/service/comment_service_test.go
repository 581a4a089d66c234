package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"murmur/internal/gateway"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countComments(t *testing.T, f *fixture) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Comment{}).Count(&n).Error)
	return n
}

func TestCommentService_AddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	post := testutil.CreatePost(t, f.db, alice.ID, "hello", at(0))

	var screened string
	f.gateway.checkSpamFn = func(_ context.Context, text string) (bool, error) {
		screened = text
		return false, nil
	}

	view, err := f.comment.AddComment(ctx, bob.ID, post.ID, "  great post  ")
	require.NoError(t, err)
	assert.Equal(t, "great post", screened)
	assert.Equal(t, "great post", view.Text)
	assert.Equal(t, post.ID, view.PostID)
	assert.Equal(t, "bob", view.Author.Username)
	assert.Equal(t, "bob Tester", view.Author.Name)
	assert.Equal(t, int64(1), countComments(t, f))

	sent := f.notifier.events()
	require.Len(t, sent, 1)
	assert.Equal(t, alice.ID, sent[0].recipient)
	assert.Equal(t, notifications.KindComment, sent[0].event.Kind)
	assert.Equal(t, view.ID, sent[0].event.CommentID)
}

func TestCommentService_SpamIsNeverStored(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	post := testutil.CreatePost(t, f.db, alice.ID, "hello", at(0))
	f.gateway.checkSpamFn = func(context.Context, string) (bool, error) { return true, nil }

	_, err := f.comment.AddComment(context.Background(), alice.ID, post.ID, "buy now")
	assertAppError(t, err, models.CodeSpam, errSpamDetected)
	assert.Equal(t, 403, models.StatusFor(err))
	assert.Zero(t, countComments(t, f))
}

func TestCommentService_ModerationUnavailable(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	post := testutil.CreatePost(t, f.db, alice.ID, "hello", at(0))
	f.gateway.checkSpamFn = func(context.Context, string) (bool, error) {
		return false, gateway.ErrUnavailable
	}

	_, err := f.comment.AddComment(context.Background(), alice.ID, post.ID, "hi")
	assertAppError(t, err, models.CodeUpstream, "Moderation service unavailable.")
	assert.Equal(t, 502, models.StatusFor(err))
	assert.True(t, errors.Is(err, gateway.ErrUnavailable))
	assert.Zero(t, countComments(t, f))
}

func TestCommentService_AddCommentRejectsInput(t *testing.T) {
	f := newFixture(t)
	alice := testutil.CreateUser(t, f.db, "alice")
	post := testutil.CreatePost(t, f.db, alice.ID, "hello", at(0))
	f.gateway.checkSpamFn = func(context.Context, string) (bool, error) {
		t.Fatal("moderation must not be called")
		return false, nil
	}

	_, err := f.comment.AddComment(context.Background(), alice.ID, post.ID, "   ")
	assertAppError(t, err, models.CodeValidation, "")

	_, err = f.comment.AddComment(context.Background(), alice.ID, post.ID, strings.Repeat("a", 161))
	assertAppError(t, err, models.CodeValidation, "")

	_, err = f.comment.AddComment(context.Background(), alice.ID, 999, "hi")
	assertAppError(t, err, models.CodeNotFound, "There is no post with this ID.")
}

func TestCommentService_RemoveComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	post := testutil.CreatePost(t, f.db, alice.ID, "hello", at(0))

	view, err := f.comment.AddComment(ctx, bob.ID, post.ID, "mine")
	require.NoError(t, err)

	_, err = f.comment.RemoveComment(ctx, alice.ID, view.ID)
	assertAppError(t, err, models.CodeForbidden, "A user with this ID is not the author of a comment with this commentId.")
	assert.Equal(t, int64(1), countComments(t, f))

	removed, err := f.comment.RemoveComment(ctx, bob.ID, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", removed.Text)
	assert.Zero(t, countComments(t, f))

	_, err = f.comment.RemoveComment(ctx, bob.ID, view.ID)
	assertAppError(t, err, models.CodeNotFound, "There is no comment with this ID.")
}
