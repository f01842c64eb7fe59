package auth

import (
	"errors"

	authsvc "vitkara-backend/internal/application/auth"
	"vitkara-backend/internal/middleware"
	"vitkara-backend/internal/pkg/response"
	"vitkara-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for investor auth endpoints.
type Handlers struct {
	Service *authsvc.Service
}

type GoogleRequest struct {
	IDToken     string `json:"idToken"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl" validate:"omitempty,url"`
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Google POST /auth/google: sign in with a Google ID token or profile.
func (h *Handlers) Google(c *fiber.Ctx) error {
	var req GoogleRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	sess, err := h.Service.GoogleSignIn(c.UserContext(), authsvc.GoogleInput{
		IDToken:     req.IDToken,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Signed in successfully", fiber.Map{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"user":         sess.Investor,
		"isNew":        sess.IsNew,
	}, nil)
}

// SendOTP POST /auth/send-otp: email a six-digit code.
func (h *Handlers) SendOTP(c *fiber.Ctx) error {
	var req SendOTPRequest
	if err := validation.Decode(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	if err := h.Service.SendOTP(c.UserContext(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "OTP sent successfully", fiber.Map{"success": true}, nil)
}

// VerifyOTP POST /auth/verify-otp: consume the code and sign in.
func (h *Handlers) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := validation.Decode(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	sess, err := h.Service.VerifyOTP(c.UserContext(), req.Email, req.OTP)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "OTP verified successfully", fiber.Map{
		"token":        sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"investor":     sess.Investor,
		"isNew":        sess.IsNew,
	}, nil)
}

// Refresh POST /auth/refresh: exchange a refresh token for a new pair.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	sess, err := h.Service.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Token refreshed", fiber.Map{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
	}, nil)
}

// Logout POST /auth/logout: tokens are stateless, so this only records the event.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if inv := middleware.GetInvestor(c); inv != nil {
		log.Info().Str("investor_id", inv.ID.String()).Str("trace_id", middleware.GetTraceID(c)).Msg("investor logged out")
	}
	return response.Success(c, "Logged out successfully", fiber.Map{"success": true}, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, authsvc.ErrMissingEmail),
		errors.Is(err, authsvc.ErrMissingFields),
		errors.Is(err, authsvc.ErrInvalidEmail),
		errors.Is(err, authsvc.ErrIDTokenRequired):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, authsvc.ErrInvalidOTP),
		errors.Is(err, authsvc.ErrInvalidGoogleToken),
		errors.Is(err, authsvc.ErrInvalidRefreshToken):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, authsvc.ErrOTPCooldown),
		errors.Is(err, authsvc.ErrTooManyAttempts):
		return response.Error(c, err.Error(), fiber.StatusTooManyRequests, nil)
	case errors.Is(err, authsvc.ErrGoogleNotConfigured):
		return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
	case errors.Is(err, authsvc.ErrOTPDelivery):
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("auth request failed")
		return response.Internal(c)
	}
}
