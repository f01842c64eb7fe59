package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier checks a Google ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// TokenInfoVerifier validates ID tokens with Google's tokeninfo endpoint and
// checks the audience against ClientID.
type TokenInfoVerifier struct {
	ClientID string
	Endpoint string
	Client   *http.Client
}

type tokenInfo struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (v *TokenInfoVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	endpoint := v.Endpoint
	if endpoint == "" {
		endpoint = DefaultTokenInfoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, err
	}
	client := v.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidGoogleToken
	}
	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, ErrInvalidGoogleToken
	}
	if v.ClientID == "" || info.Aud != v.ClientID {
		return nil, ErrInvalidGoogleToken
	}
	if info.Sub == "" || info.Email == "" || info.EmailVerified != "true" {
		return nil, ErrInvalidGoogleToken
	}
	name := info.Name
	if name == "" {
		name = localPart(info.Email)
	}
	return &GoogleIdentity{
		Subject: info.Sub,
		Email:   strings.ToLower(info.Email),
		Name:    name,
		Picture: info.Picture,
	}, nil
}
