package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/admin_console/internal/auth"
)

// RegisterAuthRoutes wires the public authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/refresh", h.Refresh)
}

// RegisterSessionRoutes wires the endpoints that need an authenticated operator.
func RegisterSessionRoutes(r fiber.Router, h *auth.Handler) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/me", h.Me)
}
