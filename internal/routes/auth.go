package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/auth"
)

// RegisterAuthRoutes wires authentication and recovery endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler) {
	group := r.Group("/auth")
	group.Post("/login", h.Login)
	group.Post("/login/code", h.RequestLoginCode)
	group.Post("/login/code/confirm", h.ConfirmLoginCode)
	group.Post("/refresh", h.Refresh)
	group.Post("/password-reset", h.RequestPasswordReset)
	group.Post("/password-reset/confirm", h.ConfirmPasswordReset)
}
