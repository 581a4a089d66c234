package repository

import (
	"context"
	"errors"
	"time"

	"murmur/internal/cache"
	"murmur/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users and their profiles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*models.User, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	CreateWithProfile(ctx context.Context, user *models.User) error
	UpdateWithProfile(ctx context.Context, user *models.User) error
	SetRefreshTokenHash(ctx context.Context, id uint, hash string) error
	SwapRefreshTokenHash(ctx context.Context, id uint, current, next string) (bool, error)
	ClearRefreshTokenHash(ctx context.Context, id uint) (bool, error)
}

type userRepository struct {
	db         *gorm.DB
	profileTTL time.Duration
}

// NewUserRepository returns a UserRepository. A non-positive profileTTL
// selects cache.DefaultProfileTTL.
func NewUserRepository(db *gorm.DB, profileTTL time.Duration) UserRepository {
	if profileTTL <= 0 {
		profileTTL = cache.DefaultProfileTTL
	}
	return &userRepository{db: db, profileTTL: profileTTL}
}

const errUserNotFound = "User not found."

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(errUserNotFound)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

// GetByUsername returns nil, nil when no user has the username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

const profileCountColumns = `users.*,
	(SELECT COUNT(*) FROM follows WHERE follows.followee_id = users.id) AS followers_count,
	(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count,
	(SELECT COUNT(*) FROM posts WHERE posts.author_id = users.id) AS posts_count`

// GetProfile loads the user with profile and graph counts. Results are cached.
func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserProfileKey(id), &user, r.profileTTL, func() error {
		err := r.db.WithContext(ctx).
			Model(&models.User{}).
			Select(profileCountColumns).
			Preload("Profile").
			Where("users.id = ?", id).
			Take(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError(errUserNotFound)
		}
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByIDs returns the users that exist among ids, in id order.
func (r *userRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Preload("Profile").Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// CreateWithProfile inserts the user and its profile in one transaction.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile := user.Profile
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		if profile == nil {
			profile = &models.Profile{}
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			target := uniqueViolationColumn(err)
			switch target {
			case "username":
				return models.NewConflictError(target, "This username already exists.")
			case "email":
				return models.NewConflictError(target, "This email already exists.")
			}
			return models.NewConflictError("", "User already exists.")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateWithProfile writes the username and profile fields in one transaction.
func (r *userRepository) UpdateWithProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Update("username", user.Username).Error; err != nil {
			return err
		}
		if user.Profile == nil {
			return nil
		}
		p := user.Profile
		res := tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).Updates(map[string]any{
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"gender":     p.Gender,
			"avatar":     p.Avatar,
			"city":       p.City,
			"bio":        p.Bio,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		p.ID = 0
		p.UserID = user.ID
		return tx.Create(p).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("username", "Username already exist.")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// SetRefreshTokenHash overwrites the stored hash, invalidating earlier tokens.
func (r *userRepository) SetRefreshTokenHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("refresh_token_hash", hash)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(errUserNotFound)
	}
	return nil
}

// SwapRefreshTokenHash replaces the stored hash only while it still equals
// current. Of two refreshes racing on the same token at most one wins.
func (r *userRepository) SwapRefreshTokenHash(ctx context.Context, id uint, current, next string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash = ?", id, current).
		Update("refresh_token_hash", next)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ClearRefreshTokenHash nulls the stored hash if one is set and reports
// whether anything changed.
func (r *userRepository) ClearRefreshTokenHash(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token_hash IS NOT NULL", id).
		Update("refresh_token_hash", nil)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
