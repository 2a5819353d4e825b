package registration

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/verification"
)

// Handler exposes the two-phase registration endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the registration handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type startRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	CPF         string `json:"cpf"`
	Phone       string `json:"phone"`
	City        string `json:"city"`
	District    string `json:"district"`
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Role        string `json:"role"`
}

// Start handles phase 1: validate, stage, send code. The response never
// contains the payload or the code.
func (h *Handler) Start(c *fiber.Ctx) error {
	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	err := h.svc.Start(c.UserContext(), StartInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		CPF:         req.CPF,
		Phone:       req.Phone,
		City:        req.City,
		District:    req.District,
		Address:     req.Address,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Role:        req.Role,
	})
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": "verification code sent",
	})
}

type confirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Confirm handles phase 2: validate the code and materialize the account.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, "email and code are required")
	}

	out, err := h.svc.Confirm(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return mapError(err)
	}

	resp := fiber.Map{
		"account": fiber.Map{
			"id":           out.Account.ID,
			"username":     out.Account.Username,
			"email":        out.Account.Email,
			"name":         out.Account.Name,
			"display_name": out.Account.DisplayName,
			"type":         out.Account.Type,
			"created_at":   out.Account.CreatedAt,
		},
		"access_token":  out.Tokens.AccessToken,
		"refresh_token": out.Tokens.RefreshToken,
		"expires_in":    out.Tokens.ExpiresIn,
	}
	if out.Organizer != nil {
		resp["organizer_id"] = out.Organizer.ID
	}
	return c.Status(http.StatusCreated).JSON(resp)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, account.ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, verification.ErrInvalidCode),
		errors.Is(err, verification.ErrExpiredCode),
		errors.Is(err, verification.ErrLockedCode):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrSessionExpired):
		return fiber.NewError(http.StatusGone, err.Error())
	case errors.Is(err, verification.ErrNotify):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
