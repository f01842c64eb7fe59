// Package tokens issues and verifies the HS256 JWTs used for investor bearer
// sessions and the admin cookie session.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	InvestorTokenTTL = 7 * 24 * time.Hour
	RefreshTokenTTL  = 30 * 24 * time.Hour
	AdminTokenTTL    = time.Hour

	audienceInvestor = "investor"
	audienceRefresh  = "investor-refresh"
	audienceAdmin    = "admin"
)

var ErrInvalidToken = errors.New("Invalid token")

// InvestorClaims identify an investor; ID is the investor's uuid.
type InvestorClaims struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AdminClaims identify an admin for the cookie session.
type AdminClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and parses tokens with one shared secret. Now defaults to time.Now.
type Issuer struct {
	Secret []byte
	Now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{Secret: []byte(secret)}
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}

func (i *Issuer) registered(audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := i.now()
	return jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (i *Issuer) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

func (i *Issuer) parse(token, audience string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return ErrInvalidToken
	}
	return nil
}

// InvestorAccess issues the 7-day bearer token.
func (i *Issuer) InvestorAccess(id uuid.UUID, email, name string) (string, error) {
	return i.sign(&InvestorClaims{
		ID:               id.String(),
		Email:            email,
		Name:             name,
		RegisteredClaims: i.registered(audienceInvestor, InvestorTokenTTL),
	})
}

// InvestorRefresh issues the 30-day refresh token. It is not accepted as a bearer token.
func (i *Issuer) InvestorRefresh(id uuid.UUID) (string, error) {
	return i.sign(&InvestorClaims{
		ID:               id.String(),
		RegisteredClaims: i.registered(audienceRefresh, RefreshTokenTTL),
	})
}

// ParseInvestor verifies a bearer token and returns the investor id.
func (i *Issuer) ParseInvestor(token string) (uuid.UUID, *InvestorClaims, error) {
	return i.parseInvestor(token, audienceInvestor)
}

// ParseRefresh verifies a refresh token and returns the investor id.
func (i *Issuer) ParseRefresh(token string) (uuid.UUID, *InvestorClaims, error) {
	return i.parseInvestor(token, audienceRefresh)
}

func (i *Issuer) parseInvestor(token, audience string) (uuid.UUID, *InvestorClaims, error) {
	var claims InvestorClaims
	if err := i.parse(token, audience, &claims); err != nil {
		return uuid.Nil, nil, err
	}
	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, nil, ErrInvalidToken
	}
	return id, &claims, nil
}

// Admin issues the one-hour admin session token.
func (i *Issuer) Admin(id uuid.UUID, email, role string) (string, error) {
	return i.sign(&AdminClaims{
		ID:               id.String(),
		Email:            email,
		Role:             role,
		RegisteredClaims: i.registered(audienceAdmin, AdminTokenTTL),
	})
}

// ParseAdmin verifies the admin cookie token.
func (i *Issuer) ParseAdmin(token string) (*AdminClaims, error) {
	var claims AdminClaims
	if err := i.parse(token, audienceAdmin, &claims); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
