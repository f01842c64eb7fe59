package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"vitkara-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// how long an in-flight request holds its key before a retry may take over
	idempotencyLockTTL = 60 * time.Second
	maxIdempotencyKey  = 128
)

type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

// Idempotency replays the stored response when a client repeats a request with
// the same Idempotency-Key and body. Keys are scoped per investor and route.
// Requests without the header, or with no Redis configured, pass straight through.
func Idempotency(rdb *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		idemKey := strings.TrimSpace(c.Get(IdempotencyHeader))
		if rdb == nil || idemKey == "" {
			return c.Next()
		}
		if len(idemKey) > maxIdempotencyKey {
			return response.BadRequest(c, "Idempotency-Key is too long", nil)
		}
		scope := "anonymous"
		if inv := GetInvestor(c); inv != nil {
			scope = inv.ID.String()
		}
		key := "idem:" + c.Method() + ":" + c.Path() + ":" + scope + ":" + idemKey
		sum := sha256.Sum256(c.Body())
		bodyHash := hex.EncodeToString(sum[:])

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		lock, _ := json.Marshal(idempEntry{InProgress: true, BodySHA256: bodyHash, CreatedAt: time.Now().UTC()})
		var cur idempEntry
		ok := false
		for attempt := 0; attempt < 2 && !ok; attempt++ {
			var err error
			ok, err = rdb.SetNX(ctx, key, lock, idempotencyLockTTL).Result()
			if err != nil {
				log.Error().Err(err).Msg("idempotency store unavailable")
				return response.Error(c, "Idempotency store unavailable", fiber.StatusServiceUnavailable, nil)
			}
			if ok {
				break
			}
			cur, err = loadEntry(ctx, rdb, key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("idempotency entry unreadable")
				break
			}
			if !cur.empty() {
				break
			}
			// the key expired between SETNX and GET; take it over
		}
		if !ok {
			if cur.BodySHA256 != "" && cur.BodySHA256 != bodyHash {
				return response.Error(c, "Idempotency-Key reused with a different body", fiber.StatusConflict, nil)
			}
			if !cur.InProgress && cur.Code != 0 {
				c.Set("Idempotent-Replayed", "true")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(cur.Code).Send(cur.Body)
			}
			return response.Error(c, "A request with this Idempotency-Key is already in progress", fiber.StatusConflict, nil)
		}

		if err := c.Next(); err != nil {
			rdb.Del(context.Background(), key)
			return err
		}
		code := c.Response().StatusCode()
		if code >= fiber.StatusInternalServerError {
			// let the client retry a failed attempt
			rdb.Del(context.Background(), key)
			return nil
		}
		final, _ := json.Marshal(idempEntry{
			Code:       code,
			Body:       append([]byte(nil), c.Response().Body()...),
			BodySHA256: bodyHash,
			CreatedAt:  time.Now().UTC(),
		})
		if err := rdb.Set(context.Background(), key, final, ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("idempotency result not stored")
		}
		return nil
	}
}

func (e idempEntry) empty() bool {
	return !e.InProgress && e.Code == 0 && e.BodySHA256 == ""
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	raw, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, nil
	}
	if err != nil {
		return e, err
	}
	return e, json.Unmarshal(raw, &e)
}
