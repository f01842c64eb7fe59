package shops

import (
	"context"
	"errors"
	"strings"

	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrShopNotFound   = errors.New("Shop not found")
	ErrDuplicateEmail = errors.New("Shop with this email already exists")
)

type Service struct {
	DB *gorm.DB
}

// CreateInput is an admin's new shop. Verified defaults to true when nil.
type CreateInput struct {
	Name               string
	Email              string
	Owner              string
	Location           *string
	Description        *string
	AvgUpiTransactions float64
	Verified           *bool
}

func (s *Service) List(ctx context.Context) ([]domain.Shop, error) {
	list := []domain.Shop{}
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Shop, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&domain.Shop{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateEmail
	}
	verified := true
	if in.Verified != nil {
		verified = *in.Verified
	}
	shop := &domain.Shop{
		Name:               strings.TrimSpace(in.Name),
		Email:              email,
		Owner:              strings.TrimSpace(in.Owner),
		Location:           in.Location,
		Description:        in.Description,
		AvgUpiTransactions: in.AvgUpiTransactions,
		Verified:           verified,
	}
	if err := db.Create(shop).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return shop, nil
}

// RefreshCounters recomputes a shop's campaign counters from its campaigns.
// Callers run it inside the transaction that changed a campaign status.
func RefreshCounters(tx *gorm.DB, shopID uuid.UUID) error {
	type row struct {
		Status domain.CampaignStatus
		N      int64
	}
	var rows []row
	if err := tx.Model(&domain.InvestmentCampaign{}).
		Select("status, COUNT(*) AS n").
		Where("shop_id = ?", shopID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return err
	}
	counts := map[domain.CampaignStatus]int64{}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	completed := counts[domain.CampaignCompleted]
	defaulted := counts[domain.CampaignDefaulted]
	return tx.Model(&domain.Shop{}).Where("id = ?", shopID).Updates(map[string]interface{}{
		"active_campaigns":    counts[domain.CampaignActive],
		"completed_campaigns": completed,
		"default_rate":        money.Rate(defaulted, completed+defaulted),
	}).Error
}
