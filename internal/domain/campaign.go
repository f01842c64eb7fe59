package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CampaignStatus is the lifecycle state of an InvestmentCampaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignFunded    CampaignStatus = "funded"
	CampaignRepaying  CampaignStatus = "repaying"
	CampaignCompleted CampaignStatus = "completed"
	CampaignDefaulted CampaignStatus = "defaulted"
)

var (
	ErrUnknownCampaignStatus = errors.New("Invalid status")
	ErrIllegalTransition     = errors.New("Illegal campaign status transition")
)

// campaignTransitions lists every legal next state. completed and defaulted are terminal.
var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:    {CampaignActive},
	CampaignActive:   {CampaignFunded, CampaignDefaulted},
	CampaignFunded:   {CampaignRepaying, CampaignDefaulted},
	CampaignRepaying: {CampaignCompleted, CampaignDefaulted},
}

// CampaignStatuses returns all statuses in lifecycle order.
func CampaignStatuses() []CampaignStatus {
	return []CampaignStatus{CampaignDraft, CampaignActive, CampaignFunded, CampaignRepaying, CampaignCompleted, CampaignDefaulted}
}

// InvestorVisibleStatuses are the statuses listed in the default campaign directory.
func InvestorVisibleStatuses() []CampaignStatus {
	return []CampaignStatus{CampaignActive, CampaignFunded, CampaignRepaying}
}

// ParseCampaignStatus returns ErrUnknownCampaignStatus for anything outside the enum.
func ParseCampaignStatus(s string) (CampaignStatus, error) {
	for _, st := range CampaignStatuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrUnknownCampaignStatus
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	for _, allowed := range campaignTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionError carries the rejected pair; it unwraps to ErrIllegalTransition.
type TransitionError struct {
	From CampaignStatus
	To   CampaignStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Cannot change campaign status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// Transition validates s -> next against the transition table.
func (s CampaignStatus) Transition(next CampaignStatus) error {
	if !s.CanTransitionTo(next) {
		return &TransitionError{From: s, To: next}
	}
	return nil
}

// InvestmentCampaign is a shop's fundraising round. CurrentAmount never exceeds TargetAmount.
type InvestmentCampaign struct {
	ID                       uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ShopID                   uuid.UUID      `gorm:"column:shop_id;type:uuid;not null;index" json:"shopId"`
	Shop                     *Shop          `gorm:"foreignKey:ShopID;references:ID" json:"shop,omitempty"`
	Title                    string         `gorm:"column:title;not null" json:"title"`
	Description              string         `gorm:"column:description;type:text;not null" json:"description"`
	TargetAmount             float64        `gorm:"column:target_amount;type:decimal(18,2);not null" json:"targetAmount"`
	CurrentAmount            float64        `gorm:"column:current_amount;type:decimal(18,2);not null;default:0" json:"currentAmount"`
	MinInvestment            float64        `gorm:"column:min_investment;type:decimal(18,2);not null" json:"minInvestment"`
	MaxInvestment            float64        `gorm:"column:max_investment;type:decimal(18,2);not null" json:"maxInvestment"`
	ExpectedROI              float64        `gorm:"column:expected_roi;type:decimal(9,2);not null" json:"expectedROI"`
	Duration                 int            `gorm:"column:duration;not null" json:"duration"`
	DailyRepaymentPercentage float64        `gorm:"column:daily_repayment_percentage;type:decimal(5,2);not null" json:"dailyRepaymentPercentage"`
	Status                   CampaignStatus `gorm:"column:status;type:varchar(20);not null;default:'draft';index" json:"status"`
	StartDate                *time.Time     `gorm:"column:start_date" json:"startDate"`
	EndDate                  time.Time      `gorm:"column:end_date;not null;index" json:"endDate"`
	RepaymentStartDate       *time.Time     `gorm:"column:repayment_start_date" json:"repaymentStartDate"`
	TotalRepaid              float64        `gorm:"column:total_repaid;type:decimal(18,2);not null;default:0" json:"totalRepaid"`
	CreatedAt                time.Time      `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt                time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

func (InvestmentCampaign) TableName() string {
	return "investment_campaigns"
}

func (c *InvestmentCampaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignDraft
	}
	return nil
}
