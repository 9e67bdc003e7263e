// Package pricing holds the money arithmetic shared by order placement and
// every page that shows a price.
package pricing

import (
	"github.com/shopspring/decimal"
)

// CurrencySymbol is prefixed to formatted amounts.
const CurrencySymbol = "₹"

var hundred = decimal.NewFromInt(100)

// LineTotal returns unitPrice multiplied by quantity. A non-positive
// quantity yields zero.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// OfferPercentage returns the discount of price against mrp as a whole
// percentage, rounded half away from zero. It is zero when mrp is not
// positive or price is not below mrp.
func OfferPercentage(mrp, price decimal.Decimal) decimal.Decimal {
	if !mrp.IsPositive() || price.GreaterThanOrEqual(mrp) {
		return decimal.Zero
	}
	return mrp.Sub(price).Mul(hundred).Div(mrp).Round(0)
}

// Format renders amount with two decimal places and the rupee sign.
func Format(amount decimal.Decimal) string {
	return CurrencySymbol + amount.StringFixed(2)
}
