package repository

import (
	"context"
	"errors"

	"murmur/internal/cache"
	"murmur/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit int) ([]models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

const errPostNotFound = "There is no post with this ID."

const postCountColumns = `posts.*,
	(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count,
	(SELECT COUNT(*) FROM reposts WHERE reposts.post_id = posts.id) AS reposts_count,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count`

// withCounts selects posts with counts and attachments.
func (r *postRepository) withCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(postCountColumns).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("attachments.id")
		})
}

// detailed is withCounts plus the author profile.
func (r *postRepository) detailed(ctx context.Context) *gorm.DB {
	return r.withCounts(ctx).Preload("Author.Profile")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, post.AuthorID)
	return nil
}

// GetByID loads a post with details. The post and its counts are cached
// until an interaction or comment on the post invalidates them. The author
// is never cached here, so profile edits show up at once.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		err := r.withCounts(ctx).Where("posts.id = ?", id).Take(&post).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError(errPostNotFound)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	post.Author = models.User{}
	if err := r.db.WithContext(ctx).Preload("Profile").Take(&post.Author, post.AuthorID).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ListByIDs returns the posts that exist among ids, newest first.
func (r *postRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	posts := []models.Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	err := r.detailed(ctx).
		Where("posts.id IN ?", ids).
		Order("posts.created_at DESC").Order("posts.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListByAuthors returns at most limit posts by the given authors, newest first.
func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit int) ([]models.Post, error) {
	posts := []models.Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}
	err := r.detailed(ctx).
		Where("posts.author_id IN ?", authorIDs).
		Order("posts.created_at DESC").Order("posts.id DESC").
		Limit(clampLimit(limit)).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
