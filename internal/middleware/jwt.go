package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/admin_console/internal/auth"
)

// OperatorIDKey is the Locals key holding the authenticated operator.
const OperatorIDKey = "operator_id"

// JWTAuth returns a middleware that validates console access tokens and checks
// the token version against the operator store.
func JWTAuth(secret string, tokens *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.ParseAccessToken(tokenStr, secret)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return fiber.NewError(http.StatusUnauthorized, "token has expired")
			}
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		if _, err := tokens.Authorize(c.UserContext(), claims); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals(OperatorIDKey, claims.OperatorID())
		c.Locals("token_version", claims.Version)
		return c.Next()
	}
}
