package domain

// Models returns every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		&Admin{}, &Shop{}, &Investor{}, &InvestmentCampaign{},
		&Investment{}, &Repayment{}, &Transaction{}, &Otp{},
	}
}
