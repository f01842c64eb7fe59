package investments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"vitkara-backend/internal/application/shops"
	"vitkara-backend/internal/config"
	"vitkara-backend/internal/domain"
	"vitkara-backend/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service runs the ticket purchase workflow. ROIMode selects how expectedROI
// scales returns (config.ROIModeMultiplier or config.ROIModePercent).
type Service struct {
	DB      *gorm.DB
	ROIMode string
}

// PlaceInput is an investor's request for a whole number of tickets.
type PlaceInput struct {
	InvestorID uuid.UUID
	CampaignID uuid.UUID
	Tickets    int64
}

// CampaignSummary is the campaign state after an accepted investment.
type CampaignSummary struct {
	ID            uuid.UUID             `json:"id"`
	CurrentAmount float64               `json:"currentAmount"`
	Status        domain.CampaignStatus `json:"status"`
}

// InvestorSummary is the investor state after an accepted investment.
type InvestorSummary struct {
	WalletBalance   float64 `json:"walletBalance"`
	TotalInvestment float64 `json:"totalInvestment"`
}

// PlaceResult is returned for an accepted investment.
type PlaceResult struct {
	Investment *domain.Investment `json:"investment"`
	Campaign   CampaignSummary    `json:"campaign"`
	Investor   InvestorSummary    `json:"investor"`
}

// ExpectedReturns applies the campaign ROI to amount. expectedROI is a
// percentage unless mode is config.ROIModeMultiplier.
func ExpectedReturns(amount decimal.Decimal, roi float64, mode string) decimal.Decimal {
	if mode == config.ROIModeMultiplier {
		return amount.Mul(money.Of(roi))
	}
	return money.Percent(amount, roi)
}

// Place validates and applies an investment in one transaction. Both rows are
// locked for update where the dialect supports it, and the writes are guarded so
// a stale read can never push currentAmount past target or a wallet below zero.
func (s *Service) Place(ctx context.Context, in PlaceInput) (*PlaceResult, error) {
	if in.Tickets <= 0 {
		return nil, ErrInvalidTickets
	}
	var out *PlaceResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var campaign domain.InvestmentCampaign
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", in.CampaignID).First(&campaign).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCampaignNotFound
			}
			return err
		}
		if campaign.Status != domain.CampaignActive {
			return ErrCampaignNotActive
		}

		amount := money.Tickets(campaign.MinInvestment, in.Tickets)
		if amount.GreaterThan(money.Of(campaign.MaxInvestment)) {
			return &LimitExceededError{Amount: money.Float(amount), Max: campaign.MaxInvestment}
		}

		var investor domain.Investor
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", in.InvestorID).First(&investor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvestorNotFound
			}
			return err
		}
		if money.Of(investor.WalletBalance).LessThan(amount) {
			return ErrInsufficientFunds
		}

		current := money.Of(campaign.CurrentAmount).Add(amount)
		target := money.Of(campaign.TargetAmount)
		if current.GreaterThan(target) {
			return ErrExceedsTarget
		}

		amt := money.Float(amount)
		nextStatus := domain.CampaignActive
		if current.GreaterThanOrEqual(target) {
			nextStatus = domain.CampaignFunded
		}
		// Bounds are computed in decimal and widened by half a cent so float
		// columns (sqlite, mysql double) cannot reject an exact fill.
		res := tx.Model(&domain.InvestmentCampaign{}).
			Where("id = ? AND status = ? AND current_amount <= ?", campaign.ID, domain.CampaignActive,
				money.Float(target.Sub(amount))+money.Tolerance).
			Updates(map[string]interface{}{
				"current_amount": gorm.Expr("ROUND(current_amount + ?, 2)", amt),
				"status":         nextStatus,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrConcurrentUpdate
		}

		res = tx.Model(&domain.Investor{}).
			Where("id = ? AND wallet_balance >= ?", investor.ID, amt-money.Tolerance).
			Updates(map[string]interface{}{
				"wallet_balance":   gorm.Expr("ROUND(wallet_balance - ?, 2)", amt),
				"total_investment": gorm.Expr("ROUND(total_investment + ?, 2)", amt),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrConcurrentUpdate
		}

		if err := tx.Model(&domain.Shop{}).Where("id = ?", campaign.ShopID).
			Update("total_raised", gorm.Expr("ROUND(total_raised + ?, 2)", amt)).Error; err != nil {
			return err
		}
		if nextStatus == domain.CampaignFunded {
			if err := shops.RefreshCounters(tx, campaign.ShopID); err != nil {
				return err
			}
		}

		inv := &domain.Investment{
			InvestorID:      investor.ID,
			CampaignID:      campaign.ID,
			Amount:          amt,
			Shares:          in.Tickets,
			ExpectedReturns: money.Float(ExpectedReturns(amount, campaign.ExpectedROI, s.ROIMode)),
			Status:          domain.InvestmentActive,
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		if err := tx.Create(investmentLedgerEntry(inv, &campaign)).Error; err != nil {
			return err
		}

		out = &PlaceResult{
			Investment: inv,
			Campaign: CampaignSummary{
				ID:            campaign.ID,
				CurrentAmount: money.Float(current),
				Status:        nextStatus,
			},
			Investor: InvestorSummary{
				WalletBalance:   money.Float(money.Of(investor.WalletBalance).Sub(amount)),
				TotalInvestment: money.Float(money.Of(investor.TotalInvestment).Add(amount)),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("investor_id", in.InvestorID.String()).
		Str("campaign_id", in.CampaignID.String()).
		Float64("amount", out.Investment.Amount).
		Str("campaign_status", string(out.Campaign.Status)).
		Msg("investment placed")
	return out, nil
}

func investmentLedgerEntry(inv *domain.Investment, campaign *domain.InvestmentCampaign) *domain.Transaction {
	shopModel := domain.PartyShop
	shopID := campaign.ShopID
	meta, _ := json.Marshal(map[string]interface{}{
		"tickets":     inv.Shares,
		"ticketPrice": campaign.MinInvestment,
	})
	return &domain.Transaction{
		Type:          domain.TxTypeInvestment,
		Amount:        inv.Amount,
		FromUser:      inv.InvestorID,
		FromUserModel: domain.PartyInvestor,
		ToUser:        &shopID,
		ToUserModel:   &shopModel,
		CampaignID:    &campaign.ID,
		InvestmentID:  &inv.ID,
		Description:   fmt.Sprintf("Investment in %s", campaign.Title),
		Status:        domain.TxStatusCompleted,
		Metadata:      datatypes.JSON(meta),
	}
}

// List returns the investor's investments newest first with campaign and shop.
func (s *Service) List(ctx context.Context, investorID uuid.UUID) ([]domain.Investment, error) {
	list := []domain.Investment{}
	err := s.DB.WithContext(ctx).
		Preload("Campaign").
		Preload("Campaign.Shop").
		Where("investor_id = ?", investorID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
