package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/registration"
)

// RegisterRegistrationRoutes wires the two-phase registration endpoints.
func RegisterRegistrationRoutes(r fiber.Router, h *registration.Handler) {
	group := r.Group("/register")
	group.Post("/", h.Start)
	group.Post("/confirm", h.Confirm)
}
