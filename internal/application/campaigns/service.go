package campaigns

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"vitkara-backend/internal/application/shops"
	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCampaignNotFound = errors.New("Campaign not found")
	ErrStartDateInPast  = errors.New("Start date must be in the future")
	ErrEndBeforeStart   = errors.New("End date must be after start date")
	ErrMinAboveMax      = errors.New("Minimum investment cannot exceed maximum investment")
	ErrMaxAboveTarget   = errors.New("Maximum investment cannot exceed target amount")
)

// StatusAll lifts the status filter in the directory but keeps the expiry filter.
const StatusAll = "all"

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DirectoryQuery selects a page of the investor campaign directory.
type DirectoryQuery struct {
	Status     string
	Page       int
	Limit      int
	IncludeAll bool
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type DirectoryPage struct {
	Campaigns  []domain.InvestmentCampaign `json:"campaigns"`
	Pagination Pagination                  `json:"pagination"`
}

func (q DirectoryQuery) normalize() DirectoryQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	max := constants.DirectoryMaxLimit
	if q.IncludeAll {
		max = constants.DirectoryIncludeAllLimit
	}
	if q.Limit < 1 {
		q.Limit = constants.DirectoryDefaultLimit
	}
	if q.Limit > max {
		q.Limit = max
	}
	return q
}

// Directory lists campaigns newest first. By default, and for status=active,
// only investor-visible statuses that have not passed their end date are returned.
func (s *Service) Directory(ctx context.Context, q DirectoryQuery) (*DirectoryPage, error) {
	q = q.normalize()
	db := s.DB.WithContext(ctx).Model(&domain.InvestmentCampaign{})
	if !q.IncludeAll {
		switch q.Status {
		case "", string(domain.CampaignActive):
			db = db.Where("status IN ?", domain.InvestorVisibleStatuses())
		case StatusAll:
		default:
			st, err := domain.ParseCampaignStatus(q.Status)
			if err != nil {
				return nil, err
			}
			db = db.Where("status = ?", st)
		}
		db = db.Where("end_date >= ?", s.now())
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, err
	}
	list := []domain.InvestmentCampaign{}
	if err := db.Preload("Shop").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return &DirectoryPage{
		Campaigns: list,
		Pagination: Pagination{
			Page:  q.Page,
			Limit: q.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(q.Limit))),
		},
	}, nil
}

// AdminList returns every campaign newest first with its shop.
func (s *Service) AdminList(ctx context.Context) ([]domain.InvestmentCampaign, error) {
	list := []domain.InvestmentCampaign{}
	if err := s.DB.WithContext(ctx).Preload("Shop").Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// CreateInput is an admin's new campaign; amounts are already known positive.
type CreateInput struct {
	ShopID                   uuid.UUID
	Title                    string
	Description              string
	TargetAmount             float64
	MinInvestment            float64
	MaxInvestment            float64
	ExpectedROI              float64
	Duration                 int
	DailyRepaymentPercentage float64
	StartDate                *time.Time
	EndDate                  time.Time
}

// Validate checks the cross-field rules. Nothing is read or written.
func (in CreateInput) Validate(now time.Time) error {
	start := now
	if in.StartDate != nil {
		if !in.StartDate.After(now) {
			return ErrStartDateInPast
		}
		start = *in.StartDate
	}
	if !in.EndDate.After(start) {
		return ErrEndBeforeStart
	}
	if in.MinInvestment > in.MaxInvestment {
		return ErrMinAboveMax
	}
	if in.MaxInvestment > in.TargetAmount {
		return ErrMaxAboveTarget
	}
	return nil
}

// Create stores a draft campaign for an existing shop.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.InvestmentCampaign, error) {
	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}
	c := &domain.InvestmentCampaign{
		ShopID:                   in.ShopID,
		Title:                    strings.TrimSpace(in.Title),
		Description:              strings.TrimSpace(in.Description),
		TargetAmount:             in.TargetAmount,
		MinInvestment:            in.MinInvestment,
		MaxInvestment:            in.MaxInvestment,
		ExpectedROI:              in.ExpectedROI,
		Duration:                 in.Duration,
		DailyRepaymentPercentage: in.DailyRepaymentPercentage,
		Status:                   domain.CampaignDraft,
		StartDate:                in.StartDate,
		EndDate:                  in.EndDate,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shop domain.Shop
		if err := tx.Where("id = ?", in.ShopID).First(&shop).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shops.ErrShopNotFound
			}
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		c.Shop = &shop
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("campaign_id", c.ID.String()).Str("shop_id", c.ShopID.String()).Msg("campaign created")
	return c, nil
}

// UpdateStatus moves a campaign along the transition table and refreshes its
// shop's counters in the same transaction.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*domain.InvestmentCampaign, error) {
	next, err := domain.ParseCampaignStatus(status)
	if err != nil {
		return nil, err
	}
	var c domain.InvestmentCampaign
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCampaignNotFound
			}
			return err
		}
		if err := c.Status.Transition(next); err != nil {
			return err
		}
		now := s.now()
		updates := map[string]interface{}{"status": next}
		switch next {
		case domain.CampaignActive:
			if c.StartDate == nil {
				updates["start_date"] = now
				c.StartDate = &now
			}
		case domain.CampaignRepaying:
			updates["repayment_start_date"] = now
			c.RepaymentStartDate = &now
		}
		if err := tx.Model(&domain.InvestmentCampaign{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
			return err
		}
		c.Status = next
		return shops.RefreshCounters(tx, c.ShopID)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("campaign_id", c.ID.String()).Str("status", string(next)).Msg("campaign status changed")
	return &c, nil
}
