package investments

import (
	"errors"
	"fmt"
)

var (
	ErrCampaignNotFound  = errors.New("Campaign not found")
	ErrCampaignNotActive = errors.New("Campaign is not active")
	ErrInvestorNotFound  = errors.New("Investor not found")
	ErrInvalidTickets    = errors.New("Number of tickets must be a positive integer")
	ErrLimitExceeded     = errors.New("Investment exceeds maximum allowed")
	ErrInsufficientFunds = errors.New("Insufficient wallet balance")
	ErrExceedsTarget     = errors.New("Investment would exceed campaign target")
	ErrConcurrentUpdate  = errors.New("Campaign or wallet changed during the investment, please retry")
)

// LimitExceededError reports the computed amount against the campaign's maximum.
type LimitExceededError struct {
	Amount float64
	Max    float64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("Investment amount (%.2f) exceeds maximum allowed (%.2f)", e.Amount, e.Max)
}

func (e *LimitExceededError) Unwrap() error { return ErrLimitExceeded }
