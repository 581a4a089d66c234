package middleware

import (
	"context"
	"strings"

	"murmur/internal/auth"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenParser verifies a raw token string.
type TokenParser interface {
	ParseAccess(token string) (*auth.Claims, error)
	ParseRefresh(token string) (*auth.Claims, error)
}

const (
	// LocalPrincipal holds the auth.Principal of the request.
	LocalPrincipal = "principal"
	// LocalRefreshToken holds the verified refresh token on the refresh route.
	LocalRefreshToken = "refreshToken"
)

const errRefreshMalformed = "Refresh token malformed."

// AuthRequired rejects requests without a valid access token and stores the
// caller's principal in fiber locals and the request context.
func AuthRequired(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c)
		if !ok {
			return unauthorized(c, "Authorization header required")
		}
		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		return authenticate(c, claims)
	}
}

// RefreshRequired verifies the bearer refresh token. The token itself is kept
// so the handler can compare it with the stored hash.
func RefreshRequired(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c)
		if !ok {
			return unauthorized(c, errRefreshMalformed)
		}
		claims, err := tokens.ParseRefresh(raw)
		if err != nil {
			return unauthorized(c, errRefreshMalformed)
		}
		c.Locals(LocalRefreshToken, raw)
		return authenticate(c, claims)
	}
}

// WebSocketAuthRequired accepts the access token from the "token" query
// parameter, since browsers cannot set headers on websocket upgrades.
func WebSocketAuthRequired(tokens TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("token")
		if raw == "" {
			var ok bool
			if raw, ok = bearerToken(c); !ok {
				return unauthorized(c, "Token required")
			}
		}
		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		return authenticate(c, claims)
	}
}

// PrincipalFrom returns the principal stored by the auth middleware.
func PrincipalFrom(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(LocalPrincipal).(auth.Principal)
	return p, ok
}

func authenticate(c *fiber.Ctx, claims *auth.Claims) error {
	userID, err := claims.UserID()
	if err != nil {
		return unauthorized(c, "Invalid user ID in token")
	}
	p := auth.Principal{UserID: userID, Email: claims.Email}

	c.Locals(LocalPrincipal, p)
	c.Locals("userID", userID)

	ctx := auth.WithPrincipal(c.UserContext(), p)
	ctx = context.WithValue(ctx, UserIDKey, userID)
	c.SetUserContext(ctx)

	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
}
