package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
)

const (
	errPostNotFound  = "There is no post with this ID."
	errLikeNotFound  = "There are no likes for a post with this ID and this user ID."
	errRepostMissing = "There are no reposts for a post with this ID and this user ID."
)

// InteractionService toggles likes and reposts.
type InteractionService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	likes    repository.InteractionRepository
	reposts  repository.InteractionRepository
	notifier Notifier
}

func NewInteractionService(
	posts repository.PostRepository,
	users repository.UserRepository,
	likes repository.InteractionRepository,
	reposts repository.InteractionRepository,
	notifier Notifier,
) *InteractionService {
	return &InteractionService{
		posts:    posts,
		users:    users,
		likes:    likes,
		reposts:  reposts,
		notifier: notifier,
	}
}

type toggle struct {
	kind     string
	event    notifications.Kind
	repo     repository.InteractionRepository
	notFound string
}

func (s *InteractionService) like() toggle {
	return toggle{kind: "like", event: notifications.KindLike, repo: s.likes, notFound: errLikeNotFound}
}

func (s *InteractionService) repost() toggle {
	return toggle{kind: "repost", event: notifications.KindRepost, repo: s.reposts, notFound: errRepostMissing}
}

func (s *InteractionService) AddLike(ctx context.Context, userID, postID uint) error {
	return s.add(ctx, s.like(), userID, postID)
}

func (s *InteractionService) RemoveLike(ctx context.Context, userID, postID uint) error {
	return s.remove(ctx, s.like(), userID, postID)
}

func (s *InteractionService) AddRepost(ctx context.Context, userID, postID uint) error {
	return s.add(ctx, s.repost(), userID, postID)
}

func (s *InteractionService) RemoveRepost(ctx context.Context, userID, postID uint) error {
	return s.remove(ctx, s.repost(), userID, postID)
}

// add is idempotent: an existing record is a success without a new row or
// a second notification.
func (s *InteractionService) add(ctx context.Context, t toggle, userID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	created, err := t.repo.Add(ctx, userID, postID)
	if err != nil {
		return err
	}
	if created {
		countInteraction(t.kind, "add")
		notify(ctx, s.notifier, s.users, post.AuthorID, userID, notifications.Event{Kind: t.event, PostID: postID})
	}
	return nil
}

func (s *InteractionService) remove(ctx context.Context, t toggle, userID, postID uint) error {
	removed, err := t.repo.Remove(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError(t.notFound)
	}
	countInteraction(t.kind, "remove")
	return nil
}
