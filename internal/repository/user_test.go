package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"murmur/internal/models"
	"murmur/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("nobody@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateWithProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()

	user := &models.User{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hash",
		Profile:  &models.Profile{FirstName: "Alice", LastName: "Liddell"},
	}
	require.NoError(t, repo.CreateWithProfile(ctx, user))
	require.NotZero(t, user.ID)
	require.NotNil(t, user.Profile)
	assert.Equal(t, user.ID, user.Profile.UserID)

	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Profile)
	assert.Equal(t, "Alice", loaded.Profile.FirstName)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, user.ID, byName.ID)
}

func TestUserRepository_CreateWithProfile_Conflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()
	testutil.CreateUser(t, db, "alice")

	err := repo.CreateWithProfile(ctx, &models.User{Email: "other@example.com", Username: "alice", Password: "x"})
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.Equal(t, "username", appErr.Target)

	err = repo.CreateWithProfile(ctx, &models.User{Email: "alice@example.com", Username: "alice2", Password: "x"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Target)

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles, "failed signup must not leave a profile behind")
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t), 0)

	_, err := repo.GetByID(context.Background(), 404)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_GetProfileCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	testutil.CreatePost(t, db, bob.ID, "one", time.Now())
	testutil.CreatePost(t, db, bob.ID, "two", time.Now())
	require.NoError(t, db.Create(&models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID}).Error)

	profile, err := repo.GetProfile(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.FollowersCount)
	assert.Equal(t, int64(0), profile.FollowingCount)
	assert.Equal(t, int64(2), profile.PostsCount)
	require.NotNil(t, profile.Profile)
	assert.Equal(t, "bob", profile.Profile.FirstName)

	profile, err = repo.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.FollowingCount)

	_, err = repo.GetProfile(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_UpdateWithProfile(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")

	gender := models.GenderFemale
	alice.Username = "alice_l"
	alice.Profile.City = "Oxford"
	alice.Profile.Gender = &gender
	require.NoError(t, repo.UpdateWithProfile(ctx, alice))

	loaded, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice_l", loaded.Username)
	assert.Equal(t, "Oxford", loaded.Profile.City)
	require.NotNil(t, loaded.Profile.Gender)
	assert.Equal(t, models.GenderFemale, *loaded.Profile.Gender)

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", alice.ID).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)

	loaded.Username = "bob"
	err = repo.UpdateWithProfile(ctx, loaded)
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestUserRepository_RefreshTokenHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	require.NoError(t, repo.SetRefreshTokenHash(ctx, alice.ID, "hash-1"))
	loaded, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.RefreshTokenHash)
	assert.Equal(t, "hash-1", *loaded.RefreshTokenHash)

	cleared, err := repo.ClearRefreshTokenHash(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, cleared)

	cleared, err = repo.ClearRefreshTokenHash(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, cleared)

	loaded, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded.RefreshTokenHash)

	err = repo.SetRefreshTokenHash(ctx, 999, "x")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_SwapRefreshTokenHash(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	require.NoError(t, repo.SetRefreshTokenHash(ctx, alice.ID, "hash-1"))

	swapped, err := repo.SwapRefreshTokenHash(ctx, alice.ID, "hash-1", "hash-2")
	require.NoError(t, err)
	assert.True(t, swapped)

	// The old hash no longer matches.
	swapped, err = repo.SwapRefreshTokenHash(ctx, alice.ID, "hash-1", "hash-3")
	require.NoError(t, err)
	assert.False(t, swapped)

	loaded, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", *loaded.RefreshTokenHash)
}

func TestUserRepository_ListByIDsAndExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db, 0)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	users, err := repo.ListByIDs(ctx, []uint{bob.ID, 999, alice.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice.ID, users[0].ID)
	assert.NotNil(t, users[0].Profile)

	users, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	ok, err := repo.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}
