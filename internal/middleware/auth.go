package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/myway-api/internal/services"
	"github.com/localnerve/myway-api/internal/types"
)

// UserIDKey is the fiber.Ctx locals key holding the authenticated user id
const UserIDKey = "userId"

// AuthUser validates an "Authorization: Bearer <jwt>" header and stores the caller's id in locals
func AuthUser(issuer *services.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return types.AuthError("Missing bearer token")
		}

		userID, err := bearerUserID(issuer, raw)
		if err != nil {
			log.Printf("[AUTH] token rejected for %s: %v", c.OriginalURL(), err)
			return err
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// OptionalUser identifies the caller on public routes. Requests without a usable
// bearer token continue as anonymous.
func OptionalUser(issuer *services.TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return c.Next()
		}

		userID, err := bearerUserID(issuer, raw)
		if err != nil {
			log.Printf("[AUTH] ignoring token for %s: %v", c.OriginalURL(), err)
			return c.Next()
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

func bearerUserID(issuer *services.TokenIssuer, header string) (uint64, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, types.AuthError("Invalid authorization header")
	}

	userID, err := issuer.Parse(parts[1])
	if err != nil {
		authErr := types.AuthError("Invalid or expired token")
		authErr.Err = err
		return 0, authErr
	}
	return userID, nil
}

// CurrentUserID returns the id stored by AuthUser, or 0 on unauthenticated routes
func CurrentUserID(c *fiber.Ctx) uint64 {
	if id, ok := c.Locals(UserIDKey).(uint64); ok {
		return id
	}
	return 0
}
