package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"vitkara-backend/internal/application/health"
	investorsvc "vitkara-backend/internal/application/investor"
	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/tokens"
	"vitkara-backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	inv *domain.Investor
	err error
}

func (s stubLoader) Load(context.Context, uuid.UUID) (*domain.Investor, error) {
	return s.inv, s.err
}

func errMsg(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var out struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Error.Message
}

func TestRequireInvestor(t *testing.T) {
	issuer := tokens.NewIssuer("secret")
	inv := &domain.Investor{ID: uuid.New(), Name: "Asha"}
	app := fiber.New()
	app.Get("/me", RequireInvestor(issuer, stubLoader{inv: inv}), func(c *fiber.Ctx) error {
		return c.SendString(GetInvestor(c).Name)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", errMsg(t, resp))

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token", errMsg(t, resp))

	refresh, _ := issuer.InvestorRefresh(inv.ID)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	access, _ := issuer.InvestorAccess(inv.ID, "a@b.com", "Asha")
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Asha", string(body))
}

func TestRequireInvestor_UnknownInvestor(t *testing.T) {
	issuer := tokens.NewIssuer("secret")
	app := fiber.New()
	app.Get("/me", RequireInvestor(issuer, stubLoader{err: investorsvc.ErrInvestorNotFound}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/broken", RequireInvestor(issuer, stubLoader{err: errors.New("db down")}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	access, _ := issuer.InvestorAccess(uuid.New(), "a@b.com", "A")

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/broken", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	issuer := tokens.NewIssuer("secret")
	app := fiber.New()
	app.Get("/admin", RequireAdmin(issuer), func(c *fiber.Ctx) error {
		return c.SendString(GetAdmin(c).Email)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, "Unauthorized", errMsg(t, resp))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "nope"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid token", errMsg(t, resp))

	investorToken, _ := issuer.InvestorAccess(uuid.New(), "a@b.com", "A")
	req = httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: investorToken})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	viewer, _ := issuer.Admin(uuid.New(), "ops@vitkara.com", "viewer")
	req = httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: viewer})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, _ := issuer.Admin(uuid.New(), "ops@vitkara.com", "admin")
	req = httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminCookie(t *testing.T) {
	c := AdminCookie("tok", true)
	assert.Equal(t, "admin-token", c.Name)
	assert.True(t, c.HTTPOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, 3600, c.MaxAge)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, fiber.CookieSameSiteStrictMode, c.SameSite)

	cleared := ClearAdminCookie(false)
	assert.Empty(t, cleared.Value)
	assert.False(t, cleared.Secure)
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".vitkara.com", DevPassword: "pw"}))
	app.Get("/x", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://app.vitkara.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.vitkara.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req.Header.Set("dev-password", "pw")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTracing(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get("X-Trace-Id"))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", id)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get("X-Trace-Id"))
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("secret detail") })

	resp, err := app.Test(httptest.NewRequest("GET", "/fiber", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", errMsg(t, resp))

	resp, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", errMsg(t, resp))

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealthMarker(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	app := fiber.New()
	app.Use(Tracing(), HealthMarker(rdb))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/fail", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for _, p := range []string{"/ok", "/fail", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}
	ctx := context.Background()
	assert.Equal(t, "2", rdb.Get(ctx, health.KeyReqTotal).Val())
	assert.Equal(t, "1", rdb.Get(ctx, health.KeyReqErrors).Val())
	entries := rdb.LRange(ctx, health.KeyErrorLog, 0, -1).Val()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], `"path":"/fail"`)
}

func TestIdempotency(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	var calls int32
	app := fiber.New()
	app.Post("/pay", Idempotency(rdb, time.Hour), func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": n})
	})
	post := func(key, body string) *http.Response {
		req := httptest.NewRequest("POST", "/pay", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	first := post("k1", `{"tickets":1}`)
	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	firstBody, _ := io.ReadAll(first.Body)

	replay := post("k1", `{"tickets":1}`)
	assert.Equal(t, fiber.StatusCreated, replay.StatusCode)
	assert.Equal(t, "true", replay.Header.Get("Idempotent-Replayed"))
	replayBody, _ := io.ReadAll(replay.Body)
	assert.JSONEq(t, string(firstBody), string(replayBody))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	conflict := post("k1", `{"tickets":2}`)
	assert.Equal(t, fiber.StatusConflict, conflict.StatusCode)

	post("", `{"tickets":1}`)
	post("", `{"tickets":1}`)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIdempotency_InFlightAndPassthrough(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	ctx := context.Background()
	key := "idem:POST:/pay:anonymous:busy"
	lock, _ := json.Marshal(idempEntry{InProgress: true, BodySHA256: ""})
	require.NoError(t, rdb.Set(ctx, key, lock, time.Minute).Err())

	app := fiber.New()
	app.Post("/pay", Idempotency(rdb, time.Hour), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	req := httptest.NewRequest("POST", "/pay", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyHeader, "busy")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	noRedis := fiber.New()
	noRedis.Post("/pay", Idempotency(nil, time.Hour), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	req = httptest.NewRequest("POST", "/pay", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyHeader, "busy")
	resp, err = noRedis.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

// expireBeforeGet drops key right before the first GET, as if its TTL ran out
// between SETNX and the read.
type expireBeforeGet struct {
	mr    *miniredis.Miniredis
	key   string
	fired bool
}

func (h *expireBeforeGet) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *expireBeforeGet) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "get" && !h.fired {
			h.fired = true
			h.mr.Del(h.key)
		}
		return next(ctx, cmd)
	}
}

func (h *expireBeforeGet) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestIdempotency_LockExpiresBetweenSetAndGet(t *testing.T) {
	rdb, mr := testutil.NewRedis(t)
	ctx := context.Background()
	key := "idem:POST:/pay:anonymous:stale"
	lock, _ := json.Marshal(idempEntry{InProgress: true})
	require.NoError(t, rdb.Set(ctx, key, lock, time.Minute).Err())
	rdb.AddHook(&expireBeforeGet{mr: mr, key: key})

	var calls int32
	app := fiber.New()
	app.Post("/pay", Idempotency(rdb, time.Hour), func(c *fiber.Ctx) error {
		atomic.AddInt32(&calls, 1)
		return c.SendStatus(fiber.StatusCreated)
	})
	req := httptest.NewRequest("POST", "/pay", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyHeader, "stale")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var stored idempEntry
	raw, err := rdb.Get(ctx, key).Bytes()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, fiber.StatusCreated, stored.Code)
}
