package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Sender delivers transactional emails.
type Sender interface {
	SendOTP(ctx context.Context, toEmail, code string, ttl time.Duration) error
}

// BrevoClient sends emails via the Brevo (Sendinblue) API. With no APIKey every send is a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "no-reply@vitkara.com"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, body BrevoSendRequest) error {
	if c.APIKey == "" {
		return nil
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendOTP emails a one-time sign-in code.
func (c *BrevoClient) SendOTP(ctx context.Context, toEmail, code string, ttl time.Duration) error {
	return c.send(ctx, BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "Vitkara"},
		To:          []BrevoContact{{Email: toEmail}},
		Subject:     "Your OTP for Vitkara",
		HTMLContent: EmailLayout(otpContent(code, ttl)),
		TextContent: "Your OTP is " + code,
	})
}
