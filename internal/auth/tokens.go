// Package auth issues and verifies JWT token pairs and hashes credentials.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"murmur/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer   = "murmur-api"
	Audience = "murmur-client"

	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken covers every reason a token is rejected.
var ErrInvalidToken = errors.New("invalid token")

// TokenPair is returned on signup, signin and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claims are carried by both access and refresh tokens. Type tells them
// apart.
type Claims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return uint(id), nil
}

type signer struct {
	kind   string
	secret []byte
	ttl    time.Duration
}

// TokenService signs and verifies access and refresh tokens. The two kinds
// use distinct secrets and a type claim, so one is never accepted as the
// other even when the secrets match.
type TokenService struct {
	access  signer
	refresh signer
	now     func() time.Time
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		access:  signer{kind: TypeAccess, secret: []byte(cfg.AccessSecret), ttl: cfg.AccessExpires},
		refresh: signer{kind: TypeRefresh, secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshExpires},
		now:     time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for the user.
func (s *TokenService) IssuePair(userID uint, email string) (TokenPair, error) {
	access, err := s.sign(s.access, userID, email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(s.refresh, userID, email)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(k signer, userID uint, email string) (string, error) {
	if len(k.secret) == 0 {
		return "", errors.New("token secret not configured")
	}
	now := s.now()
	claims := Claims{
		Email: email,
		Type:  k.kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
			// Two tokens minted in the same second must still differ.
			ID: uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
}

// ParseAccess verifies an access token.
func (s *TokenService) ParseAccess(token string) (*Claims, error) {
	return s.parse(s.access, token)
}

// ParseRefresh verifies a refresh token.
func (s *TokenService) ParseRefresh(token string) (*Claims, error) {
	return s.parse(s.refresh, token)
}

func (s *TokenService) parse(k signer, token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return k.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != k.kind {
		return nil, fmt.Errorf("%w: %q token used as %s token", ErrInvalidToken, claims.Type, k.kind)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
