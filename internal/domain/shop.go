package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shop is a merchant raising money through campaigns. The aggregate counters are
// maintained by the campaign and investment services inside their transactions.
type Shop struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name               string    `gorm:"column:name;not null" json:"name"`
	Description        *string   `gorm:"column:description" json:"description,omitempty"`
	Location           *string   `gorm:"column:location" json:"location"`
	Owner              string    `gorm:"column:owner;not null" json:"owner"`
	Email              string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	AvgUpiTransactions float64   `gorm:"column:avg_upi_transactions;not null;default:0" json:"avgUpiTransactions"`
	Verified           bool      `gorm:"column:verified;not null" json:"verified"`
	TotalRaised        float64   `gorm:"column:total_raised;type:decimal(18,2);not null;default:0" json:"totalRaised"`
	ActiveCampaigns    int       `gorm:"column:active_campaigns;not null;default:0" json:"activeCampaigns"`
	CompletedCampaigns int       `gorm:"column:completed_campaigns;not null;default:0" json:"completedCampaigns"`
	RepaymentHistory   float64   `gorm:"column:repayment_history;type:decimal(18,2);not null;default:0" json:"repaymentHistory"`
	DefaultRate        float64   `gorm:"column:default_rate;type:decimal(5,2);not null;default:0" json:"defaultRate"`
	CreatedAt          time.Time `gorm:"column:created_at;index" json:"createdAt"`
}

func (Shop) TableName() string {
	return "shops"
}

func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
