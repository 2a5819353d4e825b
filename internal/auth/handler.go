package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/verification"
)

// Handler exposes login, refresh and password-recovery endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the auth handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates a password and returns a token pair. No code involved.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	acct, pair, err := h.svc.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":    acct.ID,
		"username":      acct.Username,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// RequestLoginCode sends a login code. Always answers accepted so the
// endpoint cannot be used to probe registered addresses.
func (h *Handler) RequestLoginCode(c *fiber.Ctx) error {
	return h.requestCode(c, h.svc.RequestLoginCode)
}

type codeConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ConfirmLoginCode exchanges a valid login code for a token pair.
func (h *Handler) ConfirmLoginCode(c *fiber.Ctx) error {
	var req codeConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	acct, pair, err := h.svc.ConfirmLoginCode(c.UserContext(), req.Email, req.Code)
	if err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":    acct.ID,
		"username":      acct.Username,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh mints a fresh access token from a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	token, expiresIn, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid refresh token")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_token": token,
		"expires_in":   expiresIn,
	})
}

// RequestPasswordReset sends a recovery code with the same enumeration
// safety as RequestLoginCode.
func (h *Handler) RequestPasswordReset(c *fiber.Ctx) error {
	return h.requestCode(c, h.svc.RequestPasswordReset)
}

type passwordResetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset validates the recovery code and sets the new
// password.
func (h *Handler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req passwordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ConfirmPasswordReset(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "password updated"})
}

func (h *Handler) requestCode(c *fiber.Ctx, request func(ctx context.Context, email string) error) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email is required")
	}

	if err := request(c.UserContext(), req.Email); err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": "if the address is registered, a code has been sent",
	})
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, account.ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, verification.ErrInvalidCode),
		errors.Is(err, verification.ErrExpiredCode),
		errors.Is(err, verification.ErrLockedCode):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, account.ErrNotFound):
		return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, verification.ErrNotify):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}
