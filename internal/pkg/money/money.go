// Package money does rupee arithmetic in decimal and converts back to the
// two-place float columns used by the persistence layer.
package money

import "github.com/shopspring/decimal"

// Places is the precision of every stored monetary column.
const Places = 2

// Tolerance is half of the smallest stored unit; SQL guards over float
// columns compare within it.
const Tolerance = 0.005

var hundred = decimal.NewFromInt(100)

// Of lifts a stored amount into decimal.
func Of(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// Float rounds to Places and converts back for storage.
func Float(d decimal.Decimal) float64 {
	return d.Round(Places).InexactFloat64()
}

// Tickets prices a whole number of tickets.
func Tickets(price float64, tickets int64) decimal.Decimal {
	return Of(price).Mul(decimal.NewFromInt(tickets))
}

// Percent returns pct percent of amount.
func Percent(amount decimal.Decimal, pct float64) decimal.Decimal {
	return amount.Mul(Of(pct)).Div(hundred)
}

// Rate returns part/whole as a percentage, zero when whole is zero.
func Rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return Float(decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)))
}
