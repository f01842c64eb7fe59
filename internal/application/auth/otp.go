package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"vitkara-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// OtpStore keeps pending codes. Consume must succeed at most once per saved code.
type OtpStore interface {
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	Consume(ctx context.Context, email, code string) (bool, error)
}

// RedisOtpStore stores one key per (email, code) with the TTL as its expiry.
type RedisOtpStore struct {
	Rdb *redis.Client
}

func otpKey(email, code string) string {
	return "otp:" + email + ":" + code
}

func (s *RedisOtpStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	return s.Rdb.Set(ctx, otpKey(email, code), 1, ttl).Err()
}

// Consume reads and deletes the key in one GETDEL so concurrent verifies cannot both win.
func (s *RedisOtpStore) Consume(ctx context.Context, email, code string) (bool, error) {
	err := s.Rdb.GetDel(ctx, otpKey(email, code)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GormOtpStore keeps codes in the otps table; expiry is checked on read.
type GormOtpStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *GormOtpStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *GormOtpStore) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	now := s.now()
	db := s.DB.WithContext(ctx)
	if err := db.Where("email = ? AND expires_at <= ?", email, now).Delete(&domain.Otp{}).Error; err != nil {
		return err
	}
	return db.Create(&domain.Otp{Email: email, Code: code, CreatedAt: now, ExpiresAt: now.Add(ttl)}).Error
}

func (s *GormOtpStore) Consume(ctx context.Context, email, code string) (bool, error) {
	res := s.DB.WithContext(ctx).
		Where("email = ? AND code = ? AND expires_at > ?", email, code, s.now()).
		Delete(&domain.Otp{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// NewCode returns a uniformly random six-digit code (100000-999999).
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
