// Package testutil builds throwaway sqlite and Redis backends for tests.
package testutil

import (
	"testing"
	"time"

	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/infrastructure/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database pinned to one connection.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewRedis returns a client backed by miniredis plus the server for time travel.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// SeedShop inserts a verified shop.
func SeedShop(t *testing.T, db *gorm.DB) *domain.Shop {
	t.Helper()
	loc := "Pune"
	shop := &domain.Shop{
		Name:     "Sharma General Store",
		Owner:    "R. Sharma",
		Email:    uuid.NewString()[:8] + "@shop.test",
		Location: &loc,
		Verified: true,
	}
	require.NoError(t, db.Create(shop).Error)
	return shop
}

// CampaignOpts overrides the seeded campaign's numbers.
type CampaignOpts struct {
	Target, Current, Min, Max, ROI float64
	Status                         domain.CampaignStatus
	EndDate                        time.Time
}

// SeedCampaign inserts a campaign for shop; zero options take sensible defaults.
func SeedCampaign(t *testing.T, db *gorm.DB, shop *domain.Shop, o CampaignOpts) *domain.InvestmentCampaign {
	t.Helper()
	if o.Target == 0 {
		o.Target = 10000
	}
	if o.Min == 0 {
		o.Min = 100
	}
	if o.Max == 0 {
		o.Max = 2000
	}
	if o.ROI == 0 {
		o.ROI = 12
	}
	if o.Status == "" {
		o.Status = domain.CampaignActive
	}
	if o.EndDate.IsZero() {
		o.EndDate = time.Now().Add(30 * 24 * time.Hour)
	}
	c := &domain.InvestmentCampaign{
		ShopID:                   shop.ID,
		Title:                    "Stock up for Diwali",
		Description:              "Inventory financing",
		TargetAmount:             o.Target,
		CurrentAmount:            o.Current,
		MinInvestment:            o.Min,
		MaxInvestment:            o.Max,
		ExpectedROI:              o.ROI,
		Duration:                 90,
		DailyRepaymentPercentage: 5,
		Status:                   o.Status,
		EndDate:                  o.EndDate,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// SeedInvestor inserts an investor with the given wallet balance.
func SeedInvestor(t *testing.T, db *gorm.DB, balance float64) *domain.Investor {
	t.Helper()
	inv := &domain.Investor{
		Name:          "Asha",
		Email:         uuid.NewString()[:8] + "@investor.test",
		WalletBalance: balance,
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

// InsertBeforeCreate runs insert on the same connection right before the next
// INSERT into table, as if a concurrent writer won the race.
func InsertBeforeCreate(t *testing.T, db *gorm.DB, table string, insert func(tx *gorm.DB) error) {
	t.Helper()
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("testutil:concurrent_insert", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		if err := insert(tx.Session(&gorm.Session{NewDB: true})); err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)
}
