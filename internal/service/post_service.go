package service

import (
	"context"

	"murmur/internal/feed"
	"murmur/internal/gateway"
	"murmur/internal/models"
	"murmur/internal/repository"
)

const errRecommendationsUnavailable = "Recommendation service unavailable."

type PostService struct {
	posts       repository.PostRepository
	comments    repository.CommentRepository
	follows     repository.FollowRepository
	recommender gateway.RecommendationGateway
	timeline    timeline
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	follows repository.FollowRepository,
	likes repository.InteractionRepository,
	reposts repository.InteractionRepository,
	recommender gateway.RecommendationGateway,
) *PostService {
	return &PostService{
		posts:       posts,
		comments:    comments,
		follows:     follows,
		recommender: recommender,
		timeline:    timeline{likes: likes, reposts: reposts},
	}
}

// GetPost returns one post annotated for the viewer.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID uint) (*models.PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	ann, err := s.timeline.annotations(ctx, viewerID, []uint{post.ID})
	if err != nil {
		return nil, err
	}
	view := feed.RenderOne(feed.Entry{Post: post, At: post.CreatedAt}, ann)
	return &view, nil
}

// GetPostComments lists comments newest first.
func (s *PostService) GetPostComments(ctx context.Context, postID uint) ([]models.CommentView, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError(errPostNotFound)
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return models.CommentViews(comments), nil
}

// SuggestedPosts assembles the posts recommended for the viewer. Ids that no
// longer exist are skipped.
func (s *PostService) SuggestedPosts(ctx context.Context, viewerID uint, page feed.Page) ([]models.PostView, error) {
	ids, err := s.recommender.SuggestedPosts(ctx, viewerID)
	if err != nil {
		return nil, models.NewUpstreamError(errRecommendationsUnavailable, err)
	}
	posts, err := s.posts.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.timeline.render(ctx, viewerID, feed.Merge(feed.Authored(posts)), page)
}

// FollowingPosts is the home feed: posts by everyone the viewer follows.
func (s *PostService) FollowingPosts(ctx context.Context, viewerID uint, page feed.Page) ([]models.PostView, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	followees, err := s.follows.FolloweeIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByAuthors(ctx, followees, page.Window())
	if err != nil {
		return nil, err
	}
	return s.timeline.render(ctx, viewerID, feed.Merge(feed.Authored(posts)), page)
}
