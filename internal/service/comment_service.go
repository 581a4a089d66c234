package service

import (
	"context"
	"log/slog"

	"murmur/internal/gateway"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

const (
	errSpamDetected          = `The system has detected the comment as spam, if this is not the case, click "Appeal". Or change your comment.`
	errModerationUnavailable = "Moderation service unavailable."
	errNotCommentAuthor      = "A user with this ID is not the author of a comment with this commentId."
)

type CommentService struct {
	comments  repository.CommentRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	moderator gateway.ModerationGateway
	notifier  Notifier
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	moderator gateway.ModerationGateway,
	notifier Notifier,
) *CommentService {
	return &CommentService{
		comments:  comments,
		posts:     posts,
		users:     users,
		moderator: moderator,
		notifier:  notifier,
	}
}

// AddComment stores a comment that passed spam screening. A comment flagged
// as spam is never written.
func (s *CommentService) AddComment(ctx context.Context, userID, postID uint, text string) (*models.CommentView, error) {
	text, err := validation.NormalizeComment(text)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	spam, err := s.moderator.CheckSpam(ctx, text)
	if err != nil {
		return nil, models.NewUpstreamError(errModerationUnavailable, err)
	}
	if spam {
		observability.SpamRejections.Inc()
		middleware.Logger.InfoContext(ctx, "comment rejected as spam",
			slog.Uint64("post_id", uint64(postID)),
			slog.Uint64("user_id", uint64(userID)),
		)
		return nil, models.NewSpamError(errSpamDetected)
	}

	comment := &models.Comment{PostID: postID, UserID: userID, Text: text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	notify(ctx, s.notifier, s.users, post.AuthorID, userID, notifications.Event{
		Kind:      notifications.KindComment,
		PostID:    postID,
		CommentID: created.ID,
		Text:      created.Text,
	})

	view := models.NewCommentView(created)
	return &view, nil
}

// RemoveComment deletes a comment owned by userID and returns it.
func (s *CommentService) RemoveComment(ctx context.Context, userID, commentID uint) (*models.CommentView, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, models.NewForbiddenError(errNotCommentAuthor)
	}
	if err := s.comments.Delete(ctx, comment); err != nil {
		return nil, err
	}
	view := models.NewCommentView(comment)
	return &view, nil
}
