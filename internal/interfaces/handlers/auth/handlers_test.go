package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authsvc "vitkara-backend/internal/application/auth"
	investorsvc "vitkara-backend/internal/application/investor"
	"vitkara-backend/internal/middleware"
	"vitkara-backend/internal/pkg/tokens"
	"vitkara-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct{ code string }

func (m *captureMailer) SendOTP(_ context.Context, _, code string, _ time.Duration) error {
	m.code = code
	return nil
}

func setupApp(t *testing.T) (*fiber.App, *captureMailer) {
	t.Helper()
	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	mailer := &captureMailer{}
	issuer := tokens.NewIssuer("test-secret")
	h := &Handlers{Service: &authsvc.Service{
		DB:      db,
		Otps:    &authsvc.RedisOtpStore{Rdb: rdb},
		Limiter: rdb,
		Mailer:  mailer,
		Tokens:  issuer,
	}}
	app := fiber.New()
	g := app.Group("/auth")
	g.Post("/google", h.Google)
	g.Post("/send-otp", h.SendOTP)
	g.Post("/verify-otp", h.VerifyOTP)
	g.Post("/refresh", h.Refresh)
	g.Post("/logout", middleware.RequireInvestor(issuer, &investorsvc.Service{DB: db}), h.Logout)
	return app, mailer
}

type envelope struct {
	Status string                 `json:"status"`
	Data   map[string]interface{} `json:"data"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

func post(t *testing.T, app *fiber.App, path, body string, header ...string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestOTPRoundTrip(t *testing.T) {
	app, mailer := setupApp(t)

	code, env := post(t, app, "/auth/send-otp", `{"email":"a@b.com"}`)
	require.Equal(t, fiber.StatusOK, code, env.Error.Message)
	require.Len(t, mailer.code, 6)

	code, env = post(t, app, "/auth/verify-otp", `{"email":"a@b.com","otp":"`+mailer.code+`"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, env.Data["isNew"])
	assert.NotEmpty(t, env.Data["token"])
	investor := env.Data["investor"].(map[string]interface{})
	assert.Equal(t, "a@b.com", investor["email"])
	assert.NotContains(t, investor, "googleId")

	code, env = post(t, app, "/auth/verify-otp", `{"email":"a@b.com","otp":"`+mailer.code+`"}`)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, "Invalid OTP", env.Error.Message)
}

func TestSendOTP_Errors(t *testing.T) {
	app, _ := setupApp(t)

	code, env := post(t, app, "/auth/send-otp", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Missing email", env.Error.Message)

	code, _ = post(t, app, "/auth/send-otp", `{"email":"a@b.com","admin":true}`)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = post(t, app, "/auth/send-otp", `{"email":"a@b.com"}`)
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = post(t, app, "/auth/send-otp", `{"email":"a@b.com"}`)
	assert.Equal(t, fiber.StatusTooManyRequests, code)
}

func TestGoogleAndRefreshAndLogout(t *testing.T) {
	app, _ := setupApp(t)

	code, env := post(t, app, "/auth/google", `{"email":"g@x.com","displayName":"Gita"}`)
	require.Equal(t, fiber.StatusOK, code, env.Error.Message)
	assert.Equal(t, true, env.Data["isNew"])
	access := env.Data["accessToken"].(string)
	refresh := env.Data["refreshToken"].(string)

	code, env = post(t, app, "/auth/refresh", `{"refreshToken":"`+refresh+`"}`)
	require.Equal(t, fiber.StatusOK, code)
	assert.NotEmpty(t, env.Data["accessToken"])

	code, _ = post(t, app, "/auth/refresh", `{"refreshToken":"`+access+`"}`)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = post(t, app, "/auth/logout", ``)
	assert.Equal(t, fiber.StatusUnauthorized, code)
	code, _ = post(t, app, "/auth/logout", ``, "Authorization", "Bearer "+access)
	assert.Equal(t, fiber.StatusOK, code)

	code, env = post(t, app, "/auth/google", `{"idToken":"abc"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, code)
	assert.Equal(t, "Google sign-in is not configured", env.Error.Message)

	code, _ = post(t, app, "/auth/google", `{"email":"g@x.com"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
}
