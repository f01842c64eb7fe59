package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Investor is a retail investor. WalletBalance is only debited by the investment
// workflow and credited by admin deposits; it never goes negative.
type Investor struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	Email            string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	GoogleID         *string   `gorm:"column:google_id;uniqueIndex" json:"-"`
	Avatar           *string   `gorm:"column:avatar" json:"avatar"`
	Age              *int      `gorm:"column:age" json:"age"`
	Location         *string   `gorm:"column:location" json:"location"`
	Verified         bool      `gorm:"column:verified;not null" json:"verified"`
	WalletBalance    float64   `gorm:"column:wallet_balance;type:decimal(18,2);not null;default:0" json:"walletBalance"`
	TotalInvestment  float64   `gorm:"column:total_investment;type:decimal(18,2);not null;default:0" json:"totalInvestment"`
	DefaultDashboard *string   `gorm:"column:default_dashboard" json:"defaultDashboard"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Investor) TableName() string {
	return "investors"
}

func (i *Investor) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
