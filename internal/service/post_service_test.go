package service

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/feed"
	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_GetPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	p := testutil.CreatePost(t, f.db, alice.ID, "hello", at(0))
	require.NoError(t, f.interactions.AddRepost(ctx, bob.ID, p.ID))

	view, err := f.post.GetPost(ctx, bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", view.Content)
	assert.Equal(t, "alice", view.Author.Username)
	assert.Equal(t, int64(1), view.Counts.Reposts)
	assert.True(t, view.Controls.IsReposted)
	assert.False(t, view.Controls.IsLiked)
	assert.NotNil(t, view.Attachments)

	_, err = f.post.GetPost(ctx, bob.ID, 999)
	assertAppError(t, err, models.CodeNotFound, "There is no post with this ID.")
}

func TestPostService_GetPostComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	p := testutil.CreatePost(t, f.db, alice.ID, "hello", at(0))

	empty, err := f.post.GetPostComments(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := f.comment.AddComment(ctx, alice.ID, p.ID, "first")
	require.NoError(t, err)
	second, err := f.comment.AddComment(ctx, alice.ID, p.ID, "second")
	require.NoError(t, err)

	comments, err := f.post.GetPostComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)

	_, err = f.post.GetPostComments(ctx, 999)
	assertAppError(t, err, models.CodeNotFound, "There is no post with this ID.")
}

func TestPostService_SuggestedPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	older := testutil.CreatePost(t, f.db, alice.ID, "older", at(1))
	newer := testutil.CreatePost(t, f.db, alice.ID, "newer", at(2))

	f.gateway.suggestedPostsFn = func(context.Context, uint) ([]uint, error) {
		return []uint{older.ID, 404, newer.ID}, nil
	}
	views, err := f.post.SuggestedPosts(ctx, alice.ID, feed.NewPage(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{newer.ID, older.ID}, postIDs(views))

	f.gateway.suggestedPostsFn = func(context.Context, uint) ([]uint, error) {
		return nil, errors.New("timeout")
	}
	_, err = f.post.SuggestedPosts(ctx, alice.ID, feed.NewPage(0, 0))
	assertAppError(t, err, models.CodeUpstream, "Recommendation service unavailable.")
	assert.Equal(t, 502, models.StatusFor(err))
}

func TestPostService_FollowingPosts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	viewer := testutil.CreateUser(t, f.db, "viewer")
	followed := testutil.CreateUser(t, f.db, "followed")
	stranger := testutil.CreateUser(t, f.db, "stranger")

	p1 := testutil.CreatePost(t, f.db, followed.ID, "a", at(1))
	testutil.CreatePost(t, f.db, stranger.ID, "b", at(2))
	p3 := testutil.CreatePost(t, f.db, followed.ID, "c", at(3))
	testutil.CreatePost(t, f.db, viewer.ID, "own", at(4))

	empty, err := f.post.FollowingPosts(ctx, viewer.ID, feed.NewPage(0, 0))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, f.user.Follow(ctx, viewer.ID, followed.ID))
	views, err := f.post.FollowingPosts(ctx, viewer.ID, feed.NewPage(0, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint{p3.ID, p1.ID}, postIDs(views))
}
