package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	adminsvc "vitkara-backend/internal/application/admin"
	authsvc "vitkara-backend/internal/application/auth"
	campaignsvc "vitkara-backend/internal/application/campaigns"
	"vitkara-backend/internal/application/emails"
	healthsvc "vitkara-backend/internal/application/health"
	investmentsvc "vitkara-backend/internal/application/investments"
	investorsvc "vitkara-backend/internal/application/investor"
	shopsvc "vitkara-backend/internal/application/shops"
	walletsvc "vitkara-backend/internal/application/wallet"
	"vitkara-backend/internal/config"
	"vitkara-backend/internal/infrastructure/cache"
	"vitkara-backend/internal/infrastructure/database"
	adminhandler "vitkara-backend/internal/interfaces/handlers/admin"
	authhandler "vitkara-backend/internal/interfaces/handlers/auth"
	campaignhandler "vitkara-backend/internal/interfaces/handlers/campaigns"
	healthhandler "vitkara-backend/internal/interfaces/handlers/health"
	investmenthandler "vitkara-backend/internal/interfaces/handlers/investments"
	investorhandler "vitkara-backend/internal/interfaces/handlers/investor"
	"vitkara-backend/internal/middleware"
	"vitkara-backend/internal/pkg/tokens"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// IdempotencyTTL is how long a stored investment response can be replayed.
const IdempotencyTTL = 24 * time.Hour

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp opens the database and, when REDIS_URL is set, Redis, then builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, ErrMissingDatabaseURL
	}
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.Open(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		log.Warn().Msg("REDIS_URL not set: OTPs stored in the database, no cooldowns, idempotency or traffic stats")
	}
	return Build(cfg, db, rdb), db, rdb, nil
}

// Build wires services and routes over already-open stores. rdb may be nil.
func Build(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	issuer := tokens.NewIssuer(cfg.JWTSecret)
	if cfg.ROIMode == config.ROIModeMultiplier {
		log.Warn().Msg("ROI_MODE=multiplier: expectedReturns = amount x expectedROI, not a percentage")
	}

	collector := &healthsvc.Collector{Rdb: rdb, DB: &gormDBPinger{db: db}}
	if cfg.SendinblueAPIKey != "" {
		collector.Probes = append(collector.Probes, healthsvc.Probe{Name: "brevo", URL: "https://api.brevo.com"})
	}
	if cfg.GoogleClientID != "" {
		collector.Probes = append(collector.Probes, healthsvc.Probe{Name: "google", URL: authsvc.DefaultTokenInfoURL})
	}
	hh := &healthhandler.Handlers{Collector: collector, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	investors := &investorsvc.Service{DB: db}
	requireInvestor := middleware.RequireInvestor(issuer, investors)

	// Auth
	auth := &authsvc.Service{
		DB:      db,
		Limiter: rdb,
		Mailer:  &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
		Tokens:  issuer,

		RequireIDToken: cfg.GoogleRequireToken,
	}
	if rdb != nil {
		auth.Otps = &authsvc.RedisOtpStore{Rdb: rdb}
	} else {
		auth.Otps = &authsvc.GormOtpStore{DB: db}
	}
	if cfg.GoogleClientID != "" {
		auth.Google = &authsvc.TokenInfoVerifier{ClientID: cfg.GoogleClientID}
	}
	ah := &authhandler.Handlers{Service: auth}
	ag := app.Group("/auth")
	ag.Post("/google", ah.Google)
	ag.Post("/send-otp", ah.SendOTP)
	ag.Post("/verify-otp", ah.VerifyOTP)
	ag.Post("/refresh", ah.Refresh)
	ag.Post("/logout", requireInvestor, ah.Logout)

	// Investor
	ih := &investorhandler.Handlers{Service: investors}
	ch := &campaignhandler.Handlers{Service: &campaignsvc.Service{DB: db}}
	xh := &investmenthandler.Handlers{Service: &investmentsvc.Service{DB: db, ROIMode: cfg.ROIMode}}
	ig := app.Group("/investor", requireInvestor)
	ig.Get("/", ih.Profile)
	ig.Put("/", ih.Update)
	ig.Post("/update-profile", ih.UpdateProfile)
	ig.Get("/transactions", ih.Transactions)
	ig.Get("/campaigns", ch.List)
	ig.Post("/investments", middleware.Idempotency(rdb, IdempotencyTTL), xh.Place)
	ig.Get("/investments", xh.List)

	// Admin
	adm := &adminhandler.Handlers{
		Admins:        &adminsvc.Service{DB: db, Tokens: issuer, Secret: cfg.AdminSecret},
		Campaigns:     &campaignsvc.Service{DB: db},
		Shops:         &shopsvc.Service{DB: db},
		Wallet:        &walletsvc.Service{DB: db},
		SecureCookies: cfg.IsProduction(),
	}
	app.Post("/admin/register", adm.Register)
	app.Post("/admin/login", adm.Login)
	app.Post("/admin/logout", adm.Logout)
	admg := app.Group("/admin", middleware.RequireAdmin(issuer))
	admg.Get("/stats", adm.Stats)
	admg.Get("/shops", adm.ListShops)
	admg.Post("/shops", adm.CreateShop)
	admg.Get("/campaigns", adm.ListCampaigns)
	admg.Post("/campaigns", adm.CreateCampaign)
	admg.Put("/campaigns", adm.UpdateCampaignStatus)
	admg.Post("/investors/deposit", adm.Deposit)

	return app
}

// Handler exposes app as a net/http handler for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
