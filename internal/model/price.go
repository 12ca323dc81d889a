package model

import "github.com/shopspring/decimal"

// PriceScale is the number of fractional digits prices are stored with.
const PriceScale = 2

// ValidPrice reports whether p is positive and fits the stored scale
// without rounding.
func ValidPrice(p decimal.Decimal) bool {
	return p.IsPositive() && p.Equal(p.Truncate(PriceScale))
}
