package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TxTypeInvestment = "investment"
	TxTypeRepayment  = "repayment"
	TxTypeWithdrawal = "withdrawal"
	TxTypeDeposit    = "deposit"
	TxTypeRefund     = "refund"

	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
	TxStatusCancelled = "cancelled"

	PartyInvestor = "Investor"
	PartyShop     = "Shop"
	PartyAdmin    = "Admin"
)

// Transaction is a money movement ledger row. ReferenceID is unique when set.
type Transaction struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Type            string         `gorm:"column:type;type:varchar(20);not null;index:idx_transactions_type_status" json:"type"`
	Amount          float64        `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	FromUser        uuid.UUID      `gorm:"column:from_user;type:uuid;not null;index" json:"fromUser"`
	FromUserModel   string         `gorm:"column:from_user_model;type:varchar(20);not null" json:"fromUserModel"`
	ToUser          *uuid.UUID     `gorm:"column:to_user;type:uuid;index" json:"toUser"`
	ToUserModel     *string        `gorm:"column:to_user_model;type:varchar(20)" json:"toUserModel"`
	CampaignID      *uuid.UUID     `gorm:"column:campaign_id;type:uuid;index" json:"campaignId"`
	InvestmentID    *uuid.UUID     `gorm:"column:investment_id;type:uuid" json:"investmentId"`
	RepaymentID     *uuid.UUID     `gorm:"column:repayment_id;type:uuid" json:"repaymentId"`
	Description     string         `gorm:"column:description;not null" json:"description"`
	Status          string         `gorm:"column:status;type:varchar(20);not null;default:'pending';index:idx_transactions_type_status" json:"status"`
	TransactionDate time.Time      `gorm:"column:transaction_date;not null;index" json:"transactionDate"`
	ReferenceID     *string        `gorm:"column:reference_id;uniqueIndex" json:"referenceId"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"column:updated_at" json:"updatedAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.TransactionDate.IsZero() {
		t.TransactionDate = time.Now()
	}
	return nil
}
