package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/admin_console/internal/verification"
)

// RegisterVerificationRoutes wires the verification console endpoints. The
// submit route is the only one behind the submission rate limiter.
func RegisterVerificationRoutes(r fiber.Router, h *verification.Handler, submitLimiter fiber.Handler) {
	group := r.Group("/verification")
	group.Get("/document-types", h.DocumentTypes)
	group.Post("/format", h.Format)
	group.Post("/validate", h.Validate)
	group.Get("/session", h.Session)
	group.Delete("/session", h.Reset)
	group.Get("/session/export", h.Export)
	group.Get("/history", h.History)
	if submitLimiter != nil {
		group.Post("/:subjectId", submitLimiter, h.Submit)
	} else {
		group.Post("/:subjectId", h.Submit)
	}
}
