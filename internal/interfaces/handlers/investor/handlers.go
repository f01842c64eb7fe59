package investor

import (
	"errors"

	investorsvc "vitkara-backend/internal/application/investor"
	"vitkara-backend/internal/middleware"
	"vitkara-backend/internal/pkg/response"
	"vitkara-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *investorsvc.Service
}

// UpdateRequest is the PUT /investor body. Balances are not part of it, so a
// client sending walletBalance or totalInvestment gets a 400.
type UpdateRequest struct {
	Name             *string `json:"name" validate:"omitempty,min=1,max=100"`
	Avatar           *string `json:"avatar" validate:"omitempty,url"`
	Age              *int    `json:"age" validate:"omitempty,gte=1,lte=150"`
	Location         *string `json:"location" validate:"omitempty,max=200"`
	DefaultDashboard *string `json:"defaultDashboard" validate:"omitempty,max=50"`
}

// ProfileRequest is the POST /investor/update-profile body; all fields are required.
type ProfileRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Age      *int   `json:"age" validate:"required,gte=1,lte=150"`
	Location string `json:"location" validate:"required,max=200"`
}

// Profile GET /investor
func (h *Handlers) Profile(c *fiber.Ctx) error {
	return response.Success(c, "Profile fetched", middleware.GetInvestor(c), nil)
}

// Update PUT /investor: partial update of editable fields.
func (h *Handlers) Update(c *fiber.Ctx) error {
	var req UpdateRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	inv, err := h.Service.UpdateProfile(c.UserContext(), middleware.GetInvestor(c).ID, investorsvc.ProfileUpdate{
		Name:             req.Name,
		Avatar:           req.Avatar,
		Age:              req.Age,
		Location:         req.Location,
		DefaultDashboard: req.DefaultDashboard,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Profile updated", inv, nil)
}

// UpdateProfile POST /investor/update-profile: onboarding form.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	inv, err := h.Service.UpdateProfile(c.UserContext(), middleware.GetInvestor(c).ID, investorsvc.ProfileUpdate{
		Name:     &req.Name,
		Age:      req.Age,
		Location: &req.Location,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Profile updated", fiber.Map{"investor": inv}, nil)
}

// Transactions GET /investor/transactions
func (h *Handlers) Transactions(c *fiber.Ctx) error {
	list, err := h.Service.Transactions(c.UserContext(), middleware.GetInvestor(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Transactions fetched", fiber.Map{"transactions": list}, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, investorsvc.ErrInvestorNotFound) {
		return response.NotFound(c, err.Error())
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("investor request failed")
	return response.Internal(c)
}
