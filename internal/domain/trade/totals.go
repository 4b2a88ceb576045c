package trade

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the consumption tax rate applied when none is given
var DefaultTaxRate = decimal.NewFromInt(10)

// lineAmount computes an item amount as quantity times unit price,
// rounded half up to a whole yen
func lineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(0)
}

// taxAmount computes consumption tax on a subtotal, rounded half up
// to a whole yen. The rate is a percentage (10 means 10%).
func taxAmount(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Div(decimal.NewFromInt(100)).Round(0)
}
