package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitkara-backend/internal/application/emails"
	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/tokens"
	"vitkara-backend/internal/pkg/validation"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	ResendCooldown    = 60 * time.Second
	MaxVerifyAttempts = 5
)

// Service handles investor sign-in. Limiter is optional; without it there is no
// resend cooldown and no attempt counting.
type Service struct {
	DB           *gorm.DB
	Otps         OtpStore
	Limiter      *redis.Client
	Mailer       emails.Sender
	Tokens       *tokens.Issuer
	Google       IdentityVerifier
	GenerateCode func() (string, error)
	// RequireIDToken refuses the unverified {email, displayName} body, which
	// otherwise signs in as whoever owns that email.
	RequireIDToken bool
}

// Session is what a successful sign-in returns.
type Session struct {
	AccessToken  string
	RefreshToken string
	Investor     *domain.Investor
	IsNew        bool
}

// GoogleInput is either a Google ID token or an already-verified profile.
type GoogleInput struct {
	IDToken     string
	Email       string
	DisplayName string
	PhotoURL    string
}

type identity struct {
	email    string
	name     string
	googleID *string
	avatar   *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

func (s *Service) newCode() (string, error) {
	if s.GenerateCode != nil {
		return s.GenerateCode()
	}
	return NewCode()
}

// SendOTP stores a fresh code for email and mails it.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingEmail
	}
	if !validation.IsValidEmail(email) {
		return ErrInvalidEmail
	}
	if s.Limiter != nil {
		ok, err := s.Limiter.SetNX(ctx, "otp:cooldown:"+email, 1, ResendCooldown).Result()
		if err != nil {
			return fmt.Errorf("otp cooldown: %w", err)
		}
		if !ok {
			return ErrOTPCooldown
		}
	}
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.Otps.Save(ctx, email, code, domain.OtpTTL); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if s.Mailer != nil {
		if err := s.Mailer.SendOTP(ctx, email, code, domain.OtpTTL); err != nil {
			log.Error().Err(err).Str("email", email).Msg("otp email failed")
			return ErrOTPDelivery
		}
	}
	return nil
}

// VerifyOTP consumes the code and signs the investor in, creating them on first use.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return nil, ErrMissingFields
	}
	attemptsKey := "otp:attempts:" + email
	if s.Limiter != nil {
		n, err := s.Limiter.Incr(ctx, attemptsKey).Result()
		if err != nil {
			return nil, fmt.Errorf("otp attempts: %w", err)
		}
		if n == 1 {
			s.Limiter.Expire(ctx, attemptsKey, domain.OtpTTL)
		}
		if n > MaxVerifyAttempts {
			return nil, ErrTooManyAttempts
		}
	}
	ok, err := s.Otps.Consume(ctx, email, code)
	if err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		return nil, ErrInvalidOTP
	}
	if s.Limiter != nil {
		s.Limiter.Del(ctx, attemptsKey)
	}
	inv, isNew, err := s.findOrCreateInvestor(ctx, identity{email: email, name: localPart(email)})
	if err != nil {
		return nil, err
	}
	return s.session(inv, isNew)
}

// GoogleSignIn signs in with a verified Google identity.
func (s *Service) GoogleSignIn(ctx context.Context, in GoogleInput) (*Session, error) {
	var id identity
	if in.IDToken != "" {
		if s.Google == nil {
			return nil, ErrGoogleNotConfigured
		}
		g, err := s.Google.Verify(ctx, in.IDToken)
		if err != nil {
			if errors.Is(err, ErrInvalidGoogleToken) {
				return nil, err
			}
			log.Error().Err(err).Msg("google token verification failed")
			return nil, ErrInvalidGoogleToken
		}
		sub := g.Subject
		id = identity{email: normalizeEmail(g.Email), name: g.Name, googleID: &sub}
		if g.Picture != "" {
			pic := g.Picture
			id.avatar = &pic
		}
	} else {
		if s.RequireIDToken {
			return nil, ErrIDTokenRequired
		}
		email := normalizeEmail(in.Email)
		name := strings.TrimSpace(in.DisplayName)
		if email == "" || name == "" {
			return nil, ErrMissingFields
		}
		if !validation.IsValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		id = identity{email: email, name: name}
		if in.PhotoURL != "" {
			photo := in.PhotoURL
			id.avatar = &photo
		}
	}
	inv, isNew, err := s.findOrCreateInvestor(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.session(inv, isNew)
}

// Refresh exchanges a refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	id, _, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	var inv domain.Investor
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.session(&inv, false)
}

func (s *Service) session(inv *domain.Investor, isNew bool) (*Session, error) {
	access, err := s.Tokens.InvestorAccess(inv.ID, inv.Email, inv.Name)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.Tokens.InvestorRefresh(inv.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh, Investor: inv, IsNew: isNew}, nil
}

// findOrCreateInvestor matches by google id, then email. A lost race on the
// unique email index falls back to the row that won.
func (s *Service) findOrCreateInvestor(ctx context.Context, id identity) (*domain.Investor, bool, error) {
	db := s.DB.WithContext(ctx)
	var inv domain.Investor
	err := gorm.ErrRecordNotFound
	if id.googleID != nil {
		err = db.Where("google_id = ?", *id.googleID).First(&inv).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = db.Where("email = ?", id.email).First(&inv).Error
	}
	switch {
	case err == nil:
		return &inv, false, s.link(ctx, &inv, id)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, err
	}

	inv = domain.Investor{Name: id.name, Email: id.email, GoogleID: id.googleID, Avatar: id.avatar}
	if err := db.Create(&inv).Error; err != nil {
		var existing domain.Investor
		if findErr := db.Where("email = ?", id.email).First(&existing).Error; findErr == nil {
			return &existing, false, nil
		}
		return nil, false, err
	}
	log.Info().Str("investor_id", inv.ID.String()).Msg("investor created")
	return &inv, true, nil
}

// link attaches a google id and avatar to an existing investor that lacks them.
func (s *Service) link(ctx context.Context, inv *domain.Investor, id identity) error {
	updates := map[string]interface{}{}
	if id.googleID != nil && inv.GoogleID == nil {
		updates["google_id"] = *id.googleID
		inv.GoogleID = id.googleID
	}
	if id.avatar != nil && inv.Avatar == nil {
		updates["avatar"] = *id.avatar
		inv.Avatar = id.avatar
	}
	if len(updates) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Model(&domain.Investor{}).Where("id = ?", inv.ID).Updates(updates).Error
}
