package service

import (
	"context"
	"testing"

	"murmur/internal/auth"
	"murmur/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Correct-Horse-9"

func signup(t *testing.T, f *fixture, username string) *AuthResult {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), SignupInput{
		Email:     username + "@example.com",
		Username:  username,
		Password:  strongPassword,
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return res
}

func TestAuthService_Signup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := signup(t, f, "ada")
	assert.Equal(t, "ada", res.User.Username)
	assert.Equal(t, "Ada Lovelace", res.User.Name)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)

	stored, err := f.users.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Profile)
	assert.Equal(t, "Lovelace", stored.Profile.LastName)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.True(t, auth.VerifyRefresh(*stored.RefreshTokenHash, res.Tokens.RefreshToken))
	assert.NotEqual(t, strongPassword, stored.Password)
}

func TestAuthService_SignupConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signup(t, f, "ada")

	t.Run("username taken", func(t *testing.T) {
		_, err := f.auth.Signup(ctx, SignupInput{Email: "other@example.com", Username: "ada", Password: strongPassword})
		assertAppError(t, err, models.CodeConflict, "This username already exists.")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "username", appErr.Target)
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := f.auth.Signup(ctx, SignupInput{Email: "ADA@example.com", Username: "grace", Password: strongPassword})
		assertAppError(t, err, models.CodeConflict, "This email already exists.")
	})

	t.Run("username reported before email", func(t *testing.T) {
		_, err := f.auth.Signup(ctx, SignupInput{Email: "ada@example.com", Username: "ada", Password: strongPassword})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "username", appErr.Target)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := f.auth.Signup(ctx, SignupInput{Email: "weak@example.com", Username: "weakling", Password: "short"})
		assertAppError(t, err, models.CodeValidation, "")
	})
}

func TestAuthService_Signin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signup(t, f, "ada")

	res, err := f.auth.Signin(ctx, SigninInput{Email: " Ada@Example.com ", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, "ada", res.User.Username)

	_, err = f.auth.Signin(ctx, SigninInput{Email: "ada@example.com", Password: "wrong"})
	assertAppError(t, err, models.CodeUnauthorized, "Wrong email or password.")

	_, err = f.auth.Signin(ctx, SigninInput{Email: "nobody@example.com", Password: strongPassword})
	assertAppError(t, err, models.CodeUnauthorized, "Wrong email or password.")
}

func TestAuthService_RefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := signup(t, f, "ada")
	second, err := f.auth.Signin(ctx, SigninInput{Email: "ada@example.com", Password: strongPassword})
	require.NoError(t, err)

	// Signin rotated the signup token out.
	_, err = f.auth.Refresh(ctx, first.User.ID, first.Tokens.RefreshToken)
	assertAppError(t, err, models.CodeUnauthorized, "Access denied.")

	third, err := f.auth.Refresh(ctx, second.User.ID, second.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.Tokens.RefreshToken, third.RefreshToken)

	// Each refresh token works exactly once.
	_, err = f.auth.Refresh(ctx, second.User.ID, second.Tokens.RefreshToken)
	assertAppError(t, err, models.CodeUnauthorized, "Access denied.")

	_, err = f.auth.Refresh(ctx, second.User.ID, third.RefreshToken)
	require.NoError(t, err)
}

func TestAuthService_SignoutRevokes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := signup(t, f, "ada")

	require.NoError(t, f.auth.Signout(ctx, res.User.ID))
	require.NoError(t, f.auth.Signout(ctx, res.User.ID))

	_, err := f.auth.Refresh(ctx, res.User.ID, res.Tokens.RefreshToken)
	assertAppError(t, err, models.CodeUnauthorized, "Access denied.")

	_, err = f.auth.Refresh(ctx, 9999, res.Tokens.RefreshToken)
	assertAppError(t, err, models.CodeUnauthorized, "Access denied.")
}
