package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	investorsvc "vitkara-backend/internal/application/investor"
	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/constants"
	"vitkara-backend/internal/pkg/response"
	"vitkara-backend/internal/pkg/tokens"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	investorLocal   = "investor"
	adminLocal      = "admin"
	AdminCookieName = "admin-token"
)

// InvestorLoader resolves the investor behind a verified bearer token.
type InvestorLoader interface {
	Load(ctx context.Context, id uuid.UUID) (*domain.Investor, error)
}

// RequireInvestor verifies the bearer token and stores the investor in Locals.
func RequireInvestor(issuer *tokens.Issuer, loader InvestorLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return response.Unauthorized(c, "Unauthorized")
		}
		id, _, err := issuer.ParseInvestor(strings.TrimSpace(token))
		if err != nil {
			return response.Unauthorized(c, "Invalid token")
		}
		inv, err := loader.Load(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, investorsvc.ErrInvestorNotFound) {
				return response.Unauthorized(c, "Invalid token")
			}
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Msg("load investor")
			return response.Internal(c)
		}
		c.Locals(investorLocal, inv)
		return c.Next()
	}
}

// GetInvestor returns the authenticated investor (nil outside RequireInvestor).
func GetInvestor(c *fiber.Ctx) *domain.Investor {
	inv, _ := c.Locals(investorLocal).(*domain.Investor)
	return inv
}

// RequireAdmin verifies the admin-token cookie.
func RequireAdmin(issuer *tokens.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(AdminCookieName)
		if token == "" {
			return response.Unauthorized(c, "Unauthorized")
		}
		claims, err := issuer.ParseAdmin(token)
		if err != nil || !constants.IsValidRole(claims.Role) {
			return response.Unauthorized(c, "Invalid token")
		}
		c.Locals(adminLocal, claims)
		return c.Next()
	}
}

// GetAdmin returns the admin claims set by RequireAdmin.
func GetAdmin(c *fiber.Ctx) *tokens.AdminClaims {
	claims, _ := c.Locals(adminLocal).(*tokens.AdminClaims)
	return claims
}

// AdminCookie builds the session cookie carrying token.
func AdminCookie(token string, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     AdminCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.AdminTokenTTL / time.Second),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

// ClearAdminCookie expires the session cookie.
func ClearAdminCookie(secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     AdminCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
