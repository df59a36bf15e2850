package catalog

import (
	"strings"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeType selects how a withdrawal fee is derived
type FeeType string

const (
	FeeTypeFixed   FeeType = "fixed"
	FeeTypePercent FeeType = "percent"
)

var hundred = decimal.NewFromInt(100)

// WithdrawalMethod is a payout channel with its own exchange rate and fee.
type WithdrawalMethod struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Country        string          `json:"country"`
	Currency       string          `json:"currency"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	FeeType        FeeType         `json:"fee_type"`
	FeeValue       decimal.Decimal `json:"fee_value"`
	RequiredFields []string        `json:"required_fields"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Quote is the payout computed for a withdrawal. It is stored with the request and never
// recomputed.
type Quote struct {
	Amount       decimal.Decimal `json:"amount"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	LocalAmount  decimal.Decimal `json:"local_amount"`
	FeeType      FeeType         `json:"fee_type"`
	FeeValue     decimal.Decimal `json:"fee_value"`
	Fee          decimal.Decimal `json:"fee"`
	NetPayout    decimal.Decimal `json:"net_payout"`
	Currency     string          `json:"currency"`
}

// Quote converts a USD amount into the method's currency and applies the fee.
// The fee is expressed in the local currency; the net payout never drops below zero.
func (m *WithdrawalMethod) Quote(amount decimal.Decimal) (Quote, error) {
	if err := shared.ValidateAmount("amount", amount); err != nil {
		return Quote{}, err
	}

	local := amount.Mul(m.ExchangeRate).Round(shared.MoneyScale)

	var fee decimal.Decimal
	switch m.FeeType {
	case FeeTypeFixed:
		fee = m.FeeValue
	case FeeTypePercent:
		fee = local.Mul(m.FeeValue).Div(hundred)
	default:
		return Quote{}, shared.NewValidationError("fee_type", "is not supported")
	}
	fee = fee.Round(shared.MoneyScale)

	return Quote{
		Amount:       amount,
		ExchangeRate: m.ExchangeRate,
		LocalAmount:  local,
		FeeType:      m.FeeType,
		FeeValue:     m.FeeValue,
		Fee:          fee,
		NetPayout:    decimal.Max(decimal.Zero, local.Sub(fee)).Round(shared.MoneyScale),
		Currency:     m.Currency,
	}, nil
}

// ValidatePayoutFields requires a non-blank value for every required field and drops
// anything the method does not ask for.
func (m *WithdrawalMethod) ValidatePayoutFields(fields map[string]string) (map[string]string, error) {
	clean := make(map[string]string, len(m.RequiredFields))
	for _, name := range m.RequiredFields {
		value := strings.TrimSpace(fields[name])
		if value == "" {
			return nil, shared.NewValidationError(name, "is required")
		}
		clean[name] = value
	}
	return clean, nil
}

// Validate checks the configuration of a new method.
func (m *WithdrawalMethod) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return shared.NewValidationError("name", "is required")
	}
	if m.Country == "" {
		return shared.NewValidationError("country", "is required")
	}
	if !m.ExchangeRate.IsPositive() {
		return shared.NewValidationError("exchange_rate", "must be greater than 0")
	}
	if m.FeeType != FeeTypeFixed && m.FeeType != FeeTypePercent {
		return shared.NewValidationError("fee_type", "must be fixed or percent")
	}
	if m.FeeValue.IsNegative() {
		return shared.NewValidationError("fee_value", "must not be negative")
	}
	if m.FeeType == FeeTypePercent && m.FeeValue.GreaterThan(hundred) {
		return shared.NewValidationError("fee_value", "must not exceed 100 percent")
	}
	return nil
}
