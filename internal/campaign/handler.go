package campaign

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/account"
)

// Handler exposes campaign endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the campaign handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GoalCents   int64  `json:"goal_cents"`
}

// Create provisions a campaign for the authenticated account.
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
		AccountID:   accountID,
		Title:       req.Title,
		Description: req.Description,
		GoalCents:   req.GoalCents,
	})
	if err != nil {
		if errors.Is(err, account.ErrValidation) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}

	return c.Status(http.StatusCreated).JSON(created)
}

// List returns all campaigns.
func (h *Handler) List(c *fiber.Ctx) error {
	campaigns, err := h.svc.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"campaigns": campaigns})
}

// Get returns one campaign by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	campaign, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
	return c.Status(http.StatusOK).JSON(campaign)
}
