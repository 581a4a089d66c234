package repository

import (
	"context"

	"murmur/internal/cache"
	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionRepository stores one kind of (user, post) join record.
// Likes and reposts share it.
type InteractionRepository interface {
	// Add inserts the record and reports whether it was new.
	Add(ctx context.Context, userID, postID uint) (bool, error)
	// Remove deletes the record and reports whether one existed.
	Remove(ctx context.Context, userID, postID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Interaction, error)
	// PostIDs returns the subset of candidates the user has interacted with.
	PostIDs(ctx context.Context, userID uint, candidates []uint) ([]uint, error)
}

type interactionRepository struct {
	db     *gorm.DB
	table  string
	newRow func(userID, postID uint) any
}

// NewLikeRepository returns the InteractionRepository for likes.
func NewLikeRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{
		db:    db,
		table: "likes",
		newRow: func(userID, postID uint) any {
			return &models.Like{UserID: userID, PostID: postID}
		},
	}
}

// NewRepostRepository returns the InteractionRepository for reposts.
func NewRepostRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{
		db:    db,
		table: "reposts",
		newRow: func(userID, postID uint) any {
			return &models.Repost{UserID: userID, PostID: postID}
		},
	}
}

func (r *interactionRepository) Add(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(r.newRow(userID, postID))
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
	}
	return res.RowsAffected > 0, nil
}

func (r *interactionRepository) Remove(ctx context.Context, userID, postID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(r.newRow(0, 0))
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidatePost(ctx, postID)
	}
	return res.RowsAffected > 0, nil
}

func (r *interactionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Interaction, error) {
	rows := []models.Interaction{}
	err := r.db.WithContext(ctx).
		Table(r.table).
		Select("user_id, post_id, created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("post_id DESC").
		Limit(clampLimit(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *interactionRepository) PostIDs(ctx context.Context, userID uint, candidates []uint) ([]uint, error) {
	ids := []uint{}
	if userID == 0 || len(candidates) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("user_id = ? AND post_id IN ?", userID, candidates).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
