package donation

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/campaign"
)

// Handler exposes donation endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the donation handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	CampaignID  string `json:"campaign_id"`
	AmountCents int64  `json:"amount_cents"`
	Message     string `json:"message"`
}

// Create records a donation from the authenticated account.
func (h *Handler) Create(c *fiber.Ctx) error {
	accountID, _ := c.Locals("account_id").(string)
	if accountID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	created, err := h.svc.Create(c.UserContext(), CreateInput{
		CampaignID:  req.CampaignID,
		DonorID:     accountID,
		AmountCents: req.AmountCents,
		Message:     req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrValidation):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, campaign.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.Status(http.StatusCreated).JSON(created)
}

// ListByCampaign returns the donations made to one campaign.
func (h *Handler) ListByCampaign(c *fiber.Ctx) error {
	donations, err := h.svc.ListByCampaign(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"donations": donations})
}
