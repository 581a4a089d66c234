package service

import (
	"context"
	"strings"

	"murmur/internal/auth"
	"murmur/internal/models"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

const (
	errWrongCredentials = "Wrong email or password."
	errAccessDenied     = "Access denied."
)

// TokenIssuer mints access/refresh pairs.
type TokenIssuer interface {
	IssuePair(userID uint, email string) (auth.TokenPair, error)
}

type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

type SignupInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type SigninInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned on signup and signin.
type AuthResult struct {
	User   models.AuthUser `json:"user"`
	Tokens auth.TokenPair  `json:"tokens"`
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("firstName", in.FirstName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("lastName", in.LastName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	// Username is reported before email. The unique indexes still decide
	// when two signups race.
	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("username", "This username already exists.")
	}
	existing, err = s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("email", "This email already exists.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Email:    in.Email,
		Username: in.Username,
		Password: hash,
		Profile:  &models.Profile{FirstName: in.FirstName, LastName: in.LastName},
	}
	if err := s.users.CreateWithProfile(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.issue(ctx, user, "signup")
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: models.NewAuthUser(user), Tokens: tokens}, nil
}

// Signin never reveals which of email or password was wrong.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.ComparePassword(user.Password, in.Password) {
		return nil, models.NewUnauthorizedError(errWrongCredentials)
	}

	tokens, err := s.issue(ctx, user, "signin")
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: models.NewAuthUser(user), Tokens: tokens}, nil
}

// Signout revokes the stored refresh token. Signing out twice is fine.
func (s *AuthService) Signout(ctx context.Context, userID uint) error {
	revoked, err := s.users.ClearRefreshTokenHash(ctx, userID)
	if err != nil {
		return err
	}
	if revoked {
		observability.TokenRotations.WithLabelValues("signout").Inc()
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// stops working as soon as the new pair is stored.
func (s *AuthService) Refresh(ctx context.Context, userID uint, refreshToken string) (*auth.TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError(errAccessDenied)
		}
		return nil, err
	}
	if user.RefreshTokenHash == nil || !auth.VerifyRefresh(*user.RefreshTokenHash, refreshToken) {
		return nil, models.NewUnauthorizedError(errAccessDenied)
	}

	pair, next, err := s.mint(user)
	if err != nil {
		return nil, err
	}
	swapped, err := s.users.SwapRefreshTokenHash(ctx, user.ID, *user.RefreshTokenHash, next)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Another refresh or signin rotated first.
		return nil, models.NewUnauthorizedError(errAccessDenied)
	}
	observability.TokenRotations.WithLabelValues("refresh").Inc()
	return &pair, nil
}

// issue mints a pair and makes its refresh token the only valid one.
func (s *AuthService) issue(ctx context.Context, user *models.User, trigger string) (auth.TokenPair, error) {
	pair, hash, err := s.mint(user)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, hash); err != nil {
		return auth.TokenPair{}, err
	}
	observability.TokenRotations.WithLabelValues(trigger).Inc()
	return pair, nil
}

func (s *AuthService) mint(user *models.User) (auth.TokenPair, string, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return auth.TokenPair{}, "", models.NewInternalError(err)
	}
	hash, err := auth.HashRefresh(pair.RefreshToken)
	if err != nil {
		return auth.TokenPair{}, "", models.NewInternalError(err)
	}
	return pair, hash, nil
}
