package shared

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits stored for every amount.
const MoneyScale = 2

// MaxAmount is the first value that no longer fits a NUMERIC(20,2) column.
var MaxAmount = decimal.New(1, 20-MoneyScale)

// ValidateAmount requires a strictly positive amount with at most two decimals that fits
// the amount columns.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field, "must be greater than 0")
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return NewValidationError(field, "must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return NewValidationError(field, "is too large")
	}
	return nil
}

// FormatUSD renders an amount the way user-facing messages show it.
func FormatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(MoneyScale)
}
