package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// ROI modes for expected returns; see the investments service.
const (
	ROIModeMultiplier = "multiplier"
	ROIModePercent    = "percent"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DBDriver            string // postgres (default), mysql or sqlite
	DatabaseURL         string
	RedisURL            string
	AutoMigrate         bool
	JWTSecret           string
	AdminSecret         string // shared secret gating POST /admin/register
	GoogleClientID      string
	GoogleRequireToken  bool   // reject the unverified profile body on POST /auth/google
	SendinblueAPIKey    string // Brevo key for OTP emails; empty disables sending
	MailFrom            string
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	ROIMode             string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// IsProduction reports whether cookies must be Secure.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("MAIL_FROM", "no-reply@vitkara.com")
	viper.SetDefault("ROI_MODE", ROIModePercent)

	cfg := &Config{
		Env:                 strings.ToLower(viper.GetString("APP_ENV")),
		Port:                viper.GetString("PORT"),
		DBDriver:            strings.ToLower(viper.GetString("DB_DRIVER")),
		DatabaseURL:         viper.GetString("DATABASE_URL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		AutoMigrate:         viper.GetBool("AUTO_MIGRATE"),
		JWTSecret:           viper.GetString("JWT_SECRET"),
		AdminSecret:         viper.GetString("ADMIN_SECRET"),
		GoogleClientID:      viper.GetString("GOOGLE_CLIENT_ID"),
		GoogleRequireToken:  viper.GetBool("GOOGLE_REQUIRE_ID_TOKEN"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		ROIMode:             roiMode(viper.GetString("ROI_MODE")),
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

func roiMode(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), ROIModeMultiplier) {
		return ROIModeMultiplier
	}
	return ROIModePercent
}
