package investor

import (
	"context"
	"errors"
	"strings"

	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvestorNotFound = errors.New("Investor not found")

type Service struct {
	DB *gorm.DB
}

// Load returns the investor by id.
func (s *Service) Load(ctx context.Context, id uuid.UUID) (*domain.Investor, error) {
	var inv domain.Investor
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvestorNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// ProfileUpdate holds the editable profile fields; nil means unchanged.
// Wallet and investment totals are not editable here.
type ProfileUpdate struct {
	Name             *string
	Avatar           *string
	Age              *int
	Location         *string
	DefaultDashboard *string
}

func (u ProfileUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.Name != nil {
		cols["name"] = strings.TrimSpace(*u.Name)
	}
	if u.Avatar != nil {
		cols["avatar"] = *u.Avatar
	}
	if u.Age != nil {
		cols["age"] = *u.Age
	}
	if u.Location != nil {
		cols["location"] = strings.TrimSpace(*u.Location)
	}
	if u.DefaultDashboard != nil {
		cols["default_dashboard"] = *u.DefaultDashboard
	}
	return cols
}

// UpdateProfile applies the non-nil fields and returns the stored investor.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, u ProfileUpdate) (*domain.Investor, error) {
	cols := u.columns()
	if len(cols) > 0 {
		res := s.DB.WithContext(ctx).Model(&domain.Investor{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return s.Load(ctx, id)
}

// Transactions returns ledger rows sent or received by the investor, newest first.
func (s *Service) Transactions(ctx context.Context, id uuid.UUID) ([]domain.Transaction, error) {
	list := []domain.Transaction{}
	err := s.DB.WithContext(ctx).
		Where("from_user = ? OR to_user = ?", id, id).
		Order("transaction_date DESC").
		Limit(constants.TransactionsLimit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
