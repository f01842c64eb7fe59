package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
	InvestmentDefaulted = "defaulted"
)

// Investment is one accepted ticket purchase. Shares equals the number of tickets.
type Investment struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvestorID      uuid.UUID           `gorm:"column:investor_id;type:uuid;not null;index:idx_investments_investor_campaign" json:"investorId"`
	CampaignID      uuid.UUID           `gorm:"column:campaign_id;type:uuid;not null;index:idx_investments_investor_campaign;index:idx_investments_campaign_status" json:"campaignId"`
	Campaign        *InvestmentCampaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Amount          float64             `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Shares          int64               `gorm:"column:shares;not null" json:"shares"`
	PurchaseDate    time.Time           `gorm:"column:purchase_date;not null" json:"purchaseDate"`
	ExpectedReturns float64             `gorm:"column:expected_returns;type:decimal(18,2);not null" json:"expectedReturns"`
	TotalReceived   float64             `gorm:"column:total_received;type:decimal(18,2);not null;default:0" json:"totalReceived"`
	Status          string              `gorm:"column:status;type:varchar(20);not null;default:'active';index:idx_investments_campaign_status" json:"status"`
	CreatedAt       time.Time           `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time           `gorm:"column:updated_at" json:"updatedAt"`
}

func (Investment) TableName() string {
	return "investments"
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = InvestmentActive
	}
	if i.PurchaseDate.IsZero() {
		i.PurchaseDate = time.Now()
	}
	return nil
}
