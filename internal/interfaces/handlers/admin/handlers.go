package admin

import (
	"errors"

	adminsvc "vitkara-backend/internal/application/admin"
	campaignsvc "vitkara-backend/internal/application/campaigns"
	shopsvc "vitkara-backend/internal/application/shops"
	walletsvc "vitkara-backend/internal/application/wallet"
	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/middleware"
	"vitkara-backend/internal/pkg/response"
	"vitkara-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers serves the /admin surface. SecureCookies is set in production.
type Handlers struct {
	Admins        *adminsvc.Service
	Campaigns     *campaignsvc.Service
	Shops         *shopsvc.Service
	Wallet        *walletsvc.Service
	SecureCookies bool
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Name     string `json:"name" validate:"omitempty,max=100"`
	Secret   string `json:"secret"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register POST /admin/register
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := validation.Decode(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return response.BadRequest(c, adminsvc.ErrMissingFields.Error(), nil)
	}
	if err := validation.Struct(&req); err != nil {
		return response.Invalid(c, err)
	}
	a, err := h.Admins.Register(c.UserContext(), adminsvc.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Secret:   req.Secret,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Admin registered", a, nil)
}

// Login POST /admin/login: sets the admin-token cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := validation.Decode(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	a, token, err := h.Admins.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	c.Cookie(middleware.AdminCookie(token, h.SecureCookies))
	return response.Success(c, "Login successful", fiber.Map{"admin": a}, nil)
}

// Logout POST /admin/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	c.Cookie(middleware.ClearAdminCookie(h.SecureCookies))
	return response.Success(c, "Logged out", nil, nil)
}

// Stats GET /admin/stats
func (h *Handlers) Stats(c *fiber.Ctx) error {
	st, err := h.Admins.Stats(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Stats fetched", st, nil)
}

// ListShops GET /admin/shops
func (h *Handlers) ListShops(c *fiber.Ctx) error {
	list, err := h.Shops.List(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Shops fetched", fiber.Map{"shops": list}, nil)
}

type CreateShopRequest struct {
	Name               string   `json:"name" validate:"required,max=200"`
	Email              string   `json:"email" validate:"required,email"`
	Owner              string   `json:"owner" validate:"required,max=200"`
	Location           *string  `json:"location" validate:"omitempty,max=200"`
	Description        *string  `json:"description"`
	AvgUpiTransactions *float64 `json:"avgUpiTransactions" validate:"omitempty,gte=0"`
	Verified           *bool    `json:"verified"`
}

// CreateShop POST /admin/shops
func (h *Handlers) CreateShop(c *fiber.Ctx) error {
	var req CreateShopRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	in := shopsvc.CreateInput{
		Name:        req.Name,
		Email:       req.Email,
		Owner:       req.Owner,
		Location:    req.Location,
		Description: req.Description,
		Verified:    req.Verified,
	}
	if req.AvgUpiTransactions != nil {
		in.AvgUpiTransactions = *req.AvgUpiTransactions
	}
	shop, err := h.Shops.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Shop created", shop, nil)
}

// ListCampaigns GET /admin/campaigns
func (h *Handlers) ListCampaigns(c *fiber.Ctx) error {
	list, err := h.Campaigns.AdminList(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Campaigns fetched", fiber.Map{"campaigns": list}, nil)
}

type CreateCampaignRequest struct {
	ShopID                   string  `json:"shopId" validate:"required,uuid"`
	Title                    string  `json:"title" validate:"required,max=200"`
	Description              string  `json:"description" validate:"required"`
	TargetAmount             float64 `json:"targetAmount" validate:"gt=0"`
	MinInvestment            float64 `json:"minInvestment" validate:"gt=0"`
	MaxInvestment            float64 `json:"maxInvestment" validate:"gt=0"`
	ExpectedROI              float64 `json:"expectedROI" validate:"gte=0"`
	Duration                 int     `json:"duration" validate:"gt=0"`
	DailyRepaymentPercentage float64 `json:"dailyRepaymentPercentage" validate:"gt=0,lte=100"`
	StartDate                *Date   `json:"startDate"`
	EndDate                  *Date   `json:"endDate" validate:"required"`
}

// CreateCampaign POST /admin/campaigns: the campaign starts as draft.
func (h *Handlers) CreateCampaign(c *fiber.Ctx) error {
	var req CreateCampaignRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	in := campaignsvc.CreateInput{
		ShopID:                   uuid.MustParse(req.ShopID),
		Title:                    req.Title,
		Description:              req.Description,
		TargetAmount:             req.TargetAmount,
		MinInvestment:            req.MinInvestment,
		MaxInvestment:            req.MaxInvestment,
		ExpectedROI:              req.ExpectedROI,
		Duration:                 req.Duration,
		DailyRepaymentPercentage: req.DailyRepaymentPercentage,
		EndDate:                  req.EndDate.Time,
	}
	if req.StartDate != nil {
		start := req.StartDate.Time
		in.StartDate = &start
	}
	campaign, err := h.Campaigns.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Campaign created", campaign, nil)
}

type UpdateStatusRequest struct {
	CampaignID string `json:"campaignId" validate:"required,uuid"`
	Status     string `json:"status" validate:"required"`
}

// UpdateCampaignStatus PUT /admin/campaigns
func (h *Handlers) UpdateCampaignStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	campaign, err := h.Campaigns.UpdateStatus(c.UserContext(), uuid.MustParse(req.CampaignID), req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Campaign status updated", campaign, nil)
}

type DepositRequest struct {
	InvestorID  string  `json:"investorId" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	ReferenceID string  `json:"referenceId" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=200"`
}

// Deposit POST /admin/investors/deposit
func (h *Handlers) Deposit(c *fiber.Ctx) error {
	var req DepositRequest
	if err := validation.Bind(c.Body(), &req); err != nil {
		return response.Invalid(c, err)
	}
	adminID, err := uuid.Parse(middleware.GetAdmin(c).ID)
	if err != nil {
		return response.Unauthorized(c, "Invalid token")
	}
	res, err := h.Wallet.Deposit(c.UserContext(), walletsvc.DepositInput{
		AdminID:     adminID,
		InvestorID:  uuid.MustParse(req.InvestorID),
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Deposit recorded", res, nil)
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, adminsvc.ErrMissingFields),
		errors.Is(err, adminsvc.ErrAdminExists),
		errors.Is(err, shopsvc.ErrDuplicateEmail),
		errors.Is(err, campaignsvc.ErrStartDateInPast),
		errors.Is(err, campaignsvc.ErrEndBeforeStart),
		errors.Is(err, campaignsvc.ErrMinAboveMax),
		errors.Is(err, campaignsvc.ErrMaxAboveTarget),
		errors.Is(err, domain.ErrUnknownCampaignStatus),
		errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, walletsvc.ErrInvalidAmount),
		errors.Is(err, walletsvc.ErrMissingReference):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, adminsvc.ErrInvalidSecret),
		errors.Is(err, adminsvc.ErrInvalidCredentials):
		return response.Unauthorized(c, err.Error())
	case errors.Is(err, shopsvc.ErrShopNotFound),
		errors.Is(err, campaignsvc.ErrCampaignNotFound),
		errors.Is(err, walletsvc.ErrInvestorNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, walletsvc.ErrDuplicateDeposit):
		return response.Conflict(c, err.Error())
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Str("path", c.Path()).Msg("admin request failed")
	return response.Internal(c)
}
