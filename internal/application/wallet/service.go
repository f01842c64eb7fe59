package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvestorNotFound = errors.New("Investor not found")
	ErrInvalidAmount    = errors.New("Amount must be greater than zero")
	ErrMissingReference = errors.New("Reference ID is required")
	ErrDuplicateDeposit = errors.New("Deposit with this reference ID already recorded")
)

type Service struct {
	DB *gorm.DB
}

// DepositInput credits an investor wallet. ReferenceID identifies the external
// transfer and may be recorded only once.
type DepositInput struct {
	AdminID     uuid.UUID
	InvestorID  uuid.UUID
	Amount      float64
	ReferenceID string
	Description string
}

type DepositResult struct {
	Transaction   *domain.Transaction `json:"transaction"`
	WalletBalance float64             `json:"walletBalance"`
}

// Deposit records the ledger row and credits the wallet in one transaction.
func (s *Service) Deposit(ctx context.Context, in DepositInput) (*DepositResult, error) {
	ref := strings.TrimSpace(in.ReferenceID)
	if ref == "" {
		return nil, ErrMissingReference
	}
	amount := money.Of(in.Amount)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amt := money.Float(amount)
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = "Wallet deposit"
	}

	var out DepositResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Transaction{}).Where("reference_id = ?", ref).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateDeposit
		}
		var inv domain.Investor
		if err := tx.Where("id = ?", in.InvestorID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvestorNotFound
			}
			return err
		}
		investorModel := domain.PartyInvestor
		meta, _ := json.Marshal(map[string]string{"creditedBy": in.AdminID.String()})
		row := &domain.Transaction{
			Type:          domain.TxTypeDeposit,
			Amount:        amt,
			FromUser:      in.AdminID,
			FromUserModel: domain.PartyAdmin,
			ToUser:        &inv.ID,
			ToUserModel:   &investorModel,
			Description:   desc,
			Status:        domain.TxStatusCompleted,
			ReferenceID:   &ref,
			Metadata:      datatypes.JSON(meta),
		}
		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateDeposit
			}
			return err
		}
		if err := tx.Model(&domain.Investor{}).Where("id = ?", inv.ID).
			Update("wallet_balance", gorm.Expr("ROUND(wallet_balance + ?, 2)", amt)).Error; err != nil {
			return err
		}
		out = DepositResult{
			Transaction:   row,
			WalletBalance: money.Float(money.Of(inv.WalletBalance).Add(amount)),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("investor_id", in.InvestorID.String()).
		Str("reference_id", ref).
		Float64("amount", amt).
		Msg("wallet deposit recorded")
	return &out, nil
}
