package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/campaign"
	"github.com/acolhe/acolhe/internal/donation"
)

// RegisterCampaignRoutes wires campaign endpoints.
func RegisterCampaignRoutes(r fiber.Router, h *campaign.Handler, donations *donation.Handler) {
	group := r.Group("/campaigns")
	group.Post("/", h.Create)
	group.Get("/", h.List)
	group.Get("/:id", h.Get)
	group.Get("/:id/donations", donations.ListByCampaign)
}

// RegisterDonationRoutes wires donation endpoints.
func RegisterDonationRoutes(r fiber.Router, h *donation.Handler) {
	r.Post("/donations", h.Create)
}
