package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RepaymentPending     = "pending"
	RepaymentDistributed = "distributed"
	RepaymentFailed      = "failed"
)

// DistributionDetail is one investor's share of a repayment.
type DistributionDetail struct {
	InvestorID    uuid.UUID  `json:"investorId"`
	Amount        float64    `json:"amount"`
	DistributedAt *time.Time `json:"distributedAt,omitempty"`
}

// Repayment records a shop's reported daily revenue and the slice owed to investors.
// Amount = RevenueAmount * RepaymentPercentage / 100.
type Repayment struct {
	ID                  uuid.UUID                               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CampaignID          uuid.UUID                               `gorm:"column:campaign_id;type:uuid;not null;index:idx_repayments_campaign_date" json:"campaignId"`
	RevenueAmount       float64                                 `gorm:"column:revenue_amount;type:decimal(18,2);not null" json:"revenueAmount"`
	RepaymentPercentage float64                                 `gorm:"column:repayment_percentage;type:decimal(5,2);not null" json:"repaymentPercentage"`
	Amount              float64                                 `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	RepaymentDate       time.Time                               `gorm:"column:repayment_date;not null;index:idx_repayments_campaign_date" json:"repaymentDate"`
	ReportedBy          uuid.UUID                               `gorm:"column:reported_by;type:uuid;not null" json:"reportedBy"`
	Status              string                                  `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	DistributionDetails datatypes.JSONSlice[DistributionDetail] `gorm:"column:distribution_details" json:"distributionDetails"`
	Notes               *string                                 `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt           time.Time                               `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt           time.Time                               `gorm:"column:updated_at" json:"updatedAt"`
}

func (Repayment) TableName() string {
	return "repayments"
}

func (r *Repayment) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
