package catalog

import (
	"errors"
	"testing"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWithdrawalMethod_Quote(t *testing.T) {
	testCases := []struct {
		name      string
		method    WithdrawalMethod
		amount    string
		wantLocal string
		wantFee   string
		wantNet   string
	}{
		{
			name:      "FixedFeeWithExchangeRate",
			method:    WithdrawalMethod{ExchangeRate: dec("3.75"), FeeType: FeeTypeFixed, FeeValue: dec("10")},
			amount:    "100",
			wantLocal: "375", wantFee: "10", wantNet: "365",
		},
		{
			name:      "PercentFee",
			method:    WithdrawalMethod{ExchangeRate: dec("1"), FeeType: FeeTypePercent, FeeValue: dec("5")},
			amount:    "100",
			wantLocal: "100", wantFee: "5", wantNet: "95",
		},
		{
			name:      "NetFlooredAtZero",
			method:    WithdrawalMethod{ExchangeRate: dec("1"), FeeType: FeeTypeFixed, FeeValue: dec("10")},
			amount:    "4",
			wantLocal: "4", wantFee: "10", wantNet: "0",
		},
		{
			name:      "RoundedToCents",
			method:    WithdrawalMethod{ExchangeRate: dec("3.6725"), FeeType: FeeTypePercent, FeeValue: dec("1.5")},
			amount:    "10.01",
			wantLocal: "36.76", wantFee: "0.55", wantNet: "36.21",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.method.Quote(dec(tc.amount))
			require.NoError(t, err)

			assert.True(t, q.LocalAmount.Equal(dec(tc.wantLocal)), "local %s", q.LocalAmount)
			assert.True(t, q.Fee.Equal(dec(tc.wantFee)), "fee %s", q.Fee)
			assert.True(t, q.NetPayout.Equal(dec(tc.wantNet)), "net %s", q.NetPayout)
			assert.True(t, q.Amount.Equal(dec(tc.amount)))
		})
	}
}

func TestWithdrawalMethod_QuoteRejectsBadInput(t *testing.T) {
	m := WithdrawalMethod{ExchangeRate: dec("1"), FeeType: FeeTypeFixed}
	_, err := m.Quote(dec("0"))
	assert.ErrorIs(t, err, shared.ErrValidationFailed)

	m.FeeType = "tiered"
	_, err = m.Quote(dec("1"))
	assert.ErrorIs(t, err, shared.ValidationError{Field: "fee_type"})
}

func TestWithdrawalMethod_ValidatePayoutFields(t *testing.T) {
	m := WithdrawalMethod{RequiredFields: []string{"iban", "holder_name"}}

	clean, err := m.ValidatePayoutFields(map[string]string{"iban": " SA03 ", "holder_name": "Alice", "extra": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"iban": "SA03", "holder_name": "Alice"}, clean)

	_, err = m.ValidatePayoutFields(map[string]string{"iban": "SA03", "holder_name": "  "})
	assert.ErrorIs(t, err, shared.ValidationError{Field: "holder_name"})
}

func TestService_ResolvePrice(t *testing.T) {
	price := dec("25")
	fixed := Service{Price: &price}
	got, label, err := fixed.ResolvePrice(nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(price))
	assert.Empty(t, label)

	variants := Service{Variants: []Variant{{Label: "100 gems", Price: dec("5")}, {Label: "500 gems", Price: dec("20")}}}
	idx := 1
	got, label, err = variants.ResolvePrice(&idx)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("20")))
	assert.Equal(t, "500 gems", label)

	_, _, err = variants.ResolvePrice(nil)
	assert.ErrorIs(t, err, shared.ValidationError{Field: "variant_index"})

	bad := 2
	_, _, err = variants.ResolvePrice(&bad)
	assert.ErrorIs(t, err, shared.ValidationError{Field: "variant_index"})

	_, _, err = (&Service{}).ResolvePrice(nil)
	assert.ErrorIs(t, err, shared.ValidationError{Field: "price"})
}

func TestVisibleIn(t *testing.T) {
	assert.True(t, VisibleIn("GL", "SA"))
	assert.True(t, VisibleIn("sa", "SA"))
	assert.False(t, VisibleIn("EG", "SA"))
}

func TestErrCatalogEntryNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := ErrCatalogEntryNotFound{Kind: "withdrawal method", ID: id}
	assert.True(t, errors.Is(err, ErrCatalogEntryNotFound{}))
	assert.True(t, errors.Is(err, ErrCatalogEntryNotFound{Kind: "withdrawal method"}))
	assert.False(t, errors.Is(err, ErrCatalogEntryNotFound{Kind: "service"}))
}
