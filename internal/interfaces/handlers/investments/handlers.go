package investments

import (
	"bytes"
	"encoding/json"
	"errors"

	investmentsvc "vitkara-backend/internal/application/investments"
	"vitkara-backend/internal/middleware"
	"vitkara-backend/internal/pkg/response"
	"vitkara-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *investmentsvc.Service
}

// PlaceRequest is the POST /investor/investments body. Tickets stays raw so
// fractional, oversized or quoted values are reported as invalid tickets, not
// as a type error.
type PlaceRequest struct {
	CampaignID *string          `json:"campaignId"`
	Tickets    *json.RawMessage `json:"tickets"`
}

// parseTickets accepts only a bare JSON integer.
func parseTickets(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	n, err := json.Number(raw).Int64()
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Place POST /investor/investments
func (h *Handlers) Place(c *fiber.Ctx) error {
	var req PlaceRequest
	if err := validation.Decode(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	if req.CampaignID == nil || *req.CampaignID == "" || req.Tickets == nil {
		return response.BadRequest(c, "Campaign ID and number of tickets are required", nil)
	}
	campaignID, err := uuid.Parse(*req.CampaignID)
	if err != nil {
		return response.BadRequest(c, "Invalid campaign ID format", nil)
	}
	tickets, ok := parseTickets(*req.Tickets)
	if !ok {
		return response.BadRequest(c, investmentsvc.ErrInvalidTickets.Error(), nil)
	}

	inv := middleware.GetInvestor(c)
	res, err := h.Service.Place(c.UserContext(), investmentsvc.PlaceInput{
		InvestorID: inv.ID,
		CampaignID: campaignID,
		Tickets:    tickets,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Investment successful", res, nil)
}

// List GET /investor/investments
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext(), middleware.GetInvestor(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Investments fetched", fiber.Map{"investments": list}, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, investmentsvc.ErrCampaignNotFound),
		errors.Is(err, investmentsvc.ErrInvestorNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, investmentsvc.ErrCampaignNotActive),
		errors.Is(err, investmentsvc.ErrInvalidTickets),
		errors.Is(err, investmentsvc.ErrLimitExceeded),
		errors.Is(err, investmentsvc.ErrInsufficientFunds),
		errors.Is(err, investmentsvc.ErrExceedsTarget):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, investmentsvc.ErrConcurrentUpdate):
		return response.Conflict(c, err.Error())
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("investment request failed")
	return response.Internal(c)
}
