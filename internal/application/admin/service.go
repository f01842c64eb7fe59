package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/constants"
	"vitkara-backend/internal/pkg/tokens"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrMissingFields      = errors.New("Missing required fields")
	ErrInvalidSecret      = errors.New("Invalid admin secret")
	ErrAdminExists        = errors.New("Admin already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

// Service manages admin accounts. Secret gates registration; an empty Secret
// disables it.
type Service struct {
	DB     *gorm.DB
	Tokens *tokens.Issuer
	Secret string
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Secret   string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, ErrMissingFields
	}
	if s.Secret == "" || subtle.ConstantTimeCompare([]byte(in.Secret), []byte(s.Secret)) != 1 {
		return nil, ErrInvalidSecret
	}
	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&domain.Admin{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAdminExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	a := &domain.Admin{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         constants.Admin,
	}
	if err := db.Create(a).Error; err != nil {
		return nil, err
	}
	log.Info().Str("admin_id", a.ID.String()).Msg("admin registered")
	return a, nil
}

// Login checks the password and returns the admin with a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Admin, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	var a domain.Admin
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.Tokens.Admin(a.ID, a.Email, a.Role)
	if err != nil {
		return nil, "", err
	}
	return &a, token, nil
}

// Stats are the dashboard counters.
type Stats struct {
	TotalInvestors  int64   `json:"totalInvestors"`
	TotalShops      int64   `json:"totalShops"`
	TotalAdmins     int64   `json:"totalAdmins"`
	TotalCampaigns  int64   `json:"totalCampaigns"`
	ActiveCampaigns int64   `json:"activeCampaigns"`
	TotalInvested   float64 `json:"totalInvested"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.DB.WithContext(ctx)
	var st Stats
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&domain.Investor{}, &st.TotalInvestors},
		{&domain.Shop{}, &st.TotalShops},
		{&domain.Admin{}, &st.TotalAdmins},
		{&domain.InvestmentCampaign{}, &st.TotalCampaigns},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	if err := db.Model(&domain.InvestmentCampaign{}).
		Where("status = ?", domain.CampaignActive).
		Count(&st.ActiveCampaigns).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Investment{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&st.TotalInvested).Error; err != nil {
		return nil, err
	}
	return &st, nil
}
