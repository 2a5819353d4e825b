package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/acolhe/acolhe/internal/account"
	"github.com/acolhe/acolhe/internal/auth"
)

// JWTAuth validates bearer access tokens and loads the confirmed account
// behind them. The account id lands in c.Locals("account_id").
func JWTAuth(issuer *auth.TokenIssuer, accounts account.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		accountID, err := issuer.ParseAccess(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		if _, err := accounts.FindByID(c.UserContext(), accountID); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "account not found")
		}

		c.Locals("account_id", accountID)
		return c.Next()
	}
}
