package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pg19/portal-auth/internal/response"
	"github.com/pg19/portal-auth/internal/token"
)

const personContextKey = "personId"

// AuthMiddleware guards the endpoints that require an already-issued portal
// token (a completed login through any channel).
type AuthMiddleware struct {
	issuer *token.Issuer
	logger *slog.Logger
}

func NewAuthMiddleware(issuer *token.Issuer, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer, logger: logger}
}

func (m *AuthMiddleware) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return response.Unauthorized(c, "authentication required")
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return response.Unauthorized(c, "invalid authorization header")
		}

		personID, err := m.issuer.Verify(tokenString)
		if err != nil {
			m.logger.Debug("token rejected", "error", err)
			return response.Unauthorized(c, "invalid or expired token")
		}

		c.Locals(personContextKey, personID)
		return c.Next()
	}
}

func PersonFromContext(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(personContextKey).(int64)
	return id, ok
}
