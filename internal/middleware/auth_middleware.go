package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	jwtPkg "github.com/ldm616/justus-sub000/pkg/jwt"
)

const (
	LocalUserID    = "userID"
	LocalUserEmail = "userEmail"
)

// TokenVerifier resolves a bearer token to the identity it was issued for.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*jwtPkg.Identity, error)
}

// AuthMiddleware rejects requests without a valid bearer token. EventSource
// clients cannot set headers, so GET requests may pass the token as the
// access_token query parameter instead.
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" && c.Method() == fiber.MethodGet {
			if q := c.Query("access_token"); q != "" {
				header = "Bearer " + q
			}
		}

		token, err := jwtPkg.TokenFromHeader(header)
		if err != nil {
			return unauthorized(c, err)
		}

		identity, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			return unauthorized(c, err)
		}

		c.Locals(LocalUserID, identity.UserID)
		c.Locals(LocalUserEmail, identity.Email)
		return c.Next()
	}
}

// UserID returns the authenticated caller, or uuid.Nil outside AuthMiddleware.
func UserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(LocalUserID).(uuid.UUID)
	return id
}

func unauthorized(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtPkg.ErrMissingToken) {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("missing_token", "Authorization header is required"))
	}
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("invalid_token", "Invalid token"))
}
