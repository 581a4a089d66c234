package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"murmur/internal/auth"
	"murmur/internal/config"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

// gatewayStub stands in for the AI service.
type gatewayStub struct {
	checkSpamFn        func(context.Context, string) (bool, error)
	suggestedPostsFn   func(context.Context, uint) ([]uint, error)
	suggestedFollowsFn func(context.Context, uint) ([]uint, error)
}

func (g *gatewayStub) CheckSpam(ctx context.Context, text string) (bool, error) {
	return g.checkSpamFn(ctx, text)
}
func (g *gatewayStub) SuggestedPosts(ctx context.Context, userID uint) ([]uint, error) {
	return g.suggestedPostsFn(ctx, userID)
}
func (g *gatewayStub) SuggestedFollows(ctx context.Context, userID uint) ([]uint, error) {
	return g.suggestedFollowsFn(ctx, userID)
}

func noopGateway() *gatewayStub {
	return &gatewayStub{
		checkSpamFn:        func(context.Context, string) (bool, error) { return false, nil },
		suggestedPostsFn:   func(context.Context, uint) ([]uint, error) { return []uint{}, nil },
		suggestedFollowsFn: func(context.Context, uint) ([]uint, error) { return []uint{}, nil },
	}
}

type sentEvent struct {
	recipient uint
	event     notifications.Event
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, recipient uint, ev notifications.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{recipient: recipient, event: ev})
}

func (n *recordingNotifier) events() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.sent...)
}

// fixture wires every service against one in-memory database.
type fixture struct {
	db       *gorm.DB
	gateway  *gatewayStub
	notifier *recordingNotifier

	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository

	auth         *AuthService
	user         *UserService
	post         *PostService
	interactions *InteractionService
	comment      *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	users := repository.NewUserRepository(db, 0)
	posts := repository.NewPostRepository(db)
	follows := repository.NewFollowRepository(db)
	likes := repository.NewLikeRepository(db)
	reposts := repository.NewRepostRepository(db)
	comments := repository.NewCommentRepository(db)

	gw := noopGateway()
	n := &recordingNotifier{}
	tokens := auth.NewTokenService(&config.Config{
		AccessSecret:   "access-secret-for-service-tests-0123456789",
		AccessExpires:  time.Minute,
		RefreshSecret:  "refresh-secret-for-service-tests-0123456789",
		RefreshExpires: time.Hour,
	})

	return &fixture{
		db:           db,
		gateway:      gw,
		notifier:     n,
		users:        users,
		posts:        posts,
		comments:     comments,
		auth:         NewAuthService(users, tokens),
		user:         NewUserService(users, follows, posts, likes, reposts, gw, n),
		post:         NewPostService(posts, comments, follows, likes, reposts, gw),
		interactions: NewInteractionService(posts, users, likes, reposts, n),
		comment:      NewCommentService(comments, posts, users, gw, n),
	}
}

func (f *fixture) repostAt(t *testing.T, userID, postID uint, when time.Time) {
	t.Helper()
	row := &models.Repost{UserID: userID, PostID: postID, CreatedAt: when}
	require.NoError(t, f.db.Omit(clause.Associations).Create(row).Error)
}

func (f *fixture) likeAt(t *testing.T, userID, postID uint, when time.Time) {
	t.Helper()
	row := &models.Like{UserID: userID, PostID: postID, CreatedAt: when}
	require.NoError(t, f.db.Omit(clause.Associations).Create(row).Error)
}

func assertAppError(t *testing.T, err error, code, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func postIDs(views []models.PostView) []uint {
	ids := make([]uint, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}
