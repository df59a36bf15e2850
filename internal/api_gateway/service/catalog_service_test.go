package service

import (
	"context"
	"testing"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogServiceImpl_ListsUseAccountCountry(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	accounts := &MockAccountRepository{}
	accounts.On("GetByID", ctx, id).Return(&account.Account{ID: id, Country: "EG"}, nil).Twice()

	catalogRepo := &MockCatalogRepository{}
	deposits := []*catalog.DepositMethod{{Name: "Vodafone Cash", Country: "EG"}}
	withdrawals := []*catalog.WithdrawalMethod{{Name: "Bank Transfer", Country: shared.GlobalCountry}}
	catalogRepo.On("ListDepositMethods", ctx, "EG").Return(deposits, nil).Once()
	catalogRepo.On("ListWithdrawalMethods", ctx, "EG").Return(withdrawals, nil).Once()

	svc := NewCatalogService(catalogRepo, accounts)

	gotDeposits, err := svc.DepositMethods(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, deposits, gotDeposits)

	gotWithdrawals, err := svc.WithdrawalMethods(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, withdrawals, gotWithdrawals)

	accounts.AssertExpectations(t)
	catalogRepo.AssertExpectations(t)
}

func TestCatalogServiceImpl_ListUnknownAccount(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	accounts := &MockAccountRepository{}
	accounts.On("GetByID", ctx, id).Return(nil, account.ErrAccountNotFound{AccountID: id}).Once()

	_, err := NewCatalogService(&MockCatalogRepository{}, accounts).DepositMethods(ctx, id)
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})
}

func TestCatalogServiceImpl_CreateDepositMethod(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		input   catalog.DepositMethod
		wantErr error
	}{
		{name: "valid", input: catalog.DepositMethod{Name: " STC Pay ", Country: "sa", Instructions: "send to 05..."}},
		{name: "global", input: catalog.DepositMethod{Name: "USDT", Country: "gl"}},
		{name: "missing name", input: catalog.DepositMethod{Country: "SA"}, wantErr: shared.ValidationError{Field: "name"}},
		{name: "bad country", input: catalog.DepositMethod{Name: "X", Country: "Saudi"}, wantErr: shared.ValidationError{Field: "country"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockCatalogRepository{}
			if tt.wantErr == nil {
				repo.On("CreateDepositMethod", ctx, mock.AnythingOfType("*catalog.DepositMethod")).Return(nil).Once()
			}

			input := tt.input
			created, err := NewCatalogService(repo, nil).CreateDepositMethod(ctx, &input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "CreateDepositMethod", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID)
			assert.True(t, created.Active)
			assert.Len(t, created.Country, 2)
			repo.AssertExpectations(t)
		})
	}
}

func TestCatalogServiceImpl_CreateWithdrawalMethod(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		repo.On("CreateWithdrawalMethod", ctx, mock.MatchedBy(func(m *catalog.WithdrawalMethod) bool {
			return m.Country == "SA" && m.Currency == "SAR" && m.Active
		})).Return(nil).Once()

		_, err := NewCatalogService(repo, nil).CreateWithdrawalMethod(ctx, &catalog.WithdrawalMethod{
			Name:         "Bank Transfer",
			Country:      "sa",
			Currency:     "sar",
			ExchangeRate: decimal.RequireFromString("3.75"),
			FeeType:      catalog.FeeTypeFixed,
			FeeValue:     decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("PercentFeeAboveHundred", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		_, err := NewCatalogService(repo, nil).CreateWithdrawalMethod(ctx, &catalog.WithdrawalMethod{
			Name:         "Bank Transfer",
			Country:      "SA",
			ExchangeRate: decimal.NewFromInt(1),
			FeeType:      catalog.FeeTypePercent,
			FeeValue:     decimal.NewFromInt(101),
		})
		assert.ErrorIs(t, err, shared.ValidationError{Field: "fee_value"})
	})
}

func TestCatalogServiceImpl_CreateService(t *testing.T) {
	ctx := context.Background()

	t.Run("WithVariants", func(t *testing.T) {
		repo := &MockCatalogRepository{}
		repo.On("CreateService", ctx, mock.AnythingOfType("*catalog.Service")).Return(nil).Once()

		svc, err := NewCatalogService(repo, nil).CreateService(ctx, &catalog.Service{
			Name:     "PUBG UC",
			Category: "games",
			Variants: []catalog.Variant{{Label: "60 UC", Price: decimal.NewFromInt(1)}},
		})
		require.NoError(t, err)
		assert.True(t, svc.Active)
	})

	t.Run("NoPrice", func(t *testing.T) {
		_, err := NewCatalogService(&MockCatalogRepository{}, nil).CreateService(ctx, &catalog.Service{Name: "Empty"})
		assert.ErrorIs(t, err, shared.ValidationError{Field: "price"})
	})
}
