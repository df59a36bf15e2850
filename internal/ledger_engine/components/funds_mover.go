package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FundsMoverImpl implements the FundsMover interface
type FundsMoverImpl struct {
	accountRepo     account.Repository
	transactionRepo transaction.Repository
	logger          *slog.Logger
}

func NewFundsMover(accountRepo account.Repository, transactionRepo transaction.Repository, logger *slog.Logger) service.FundsMover {
	return &FundsMoverImpl{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// Debit lowers the balance with a conditional update and appends rec.
func (m *FundsMoverImpl) Debit(ctx context.Context, tx pgx.Tx, rec *transaction.Record) (decimal.Decimal, error) {
	if !rec.Kind.IsDebit() {
		return decimal.Zero, errors.New("debit requires a debit record kind, got " + string(rec.Kind))
	}
	balance, err := m.accountRepo.WithTx(tx).Debit(ctx, rec.AccountID, rec.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	if err := m.transactionRepo.WithTx(tx).Create(ctx, rec); err != nil {
		return decimal.Zero, err
	}
	m.logger.Debug("Account debited", "account_id", rec.AccountID.String(), "kind", string(rec.Kind), "amount", rec.Amount.String(), "balance", balance.String())
	return balance, nil
}

// Credit raises the balance and appends rec.
func (m *FundsMoverImpl) Credit(ctx context.Context, tx pgx.Tx, rec *transaction.Record) (decimal.Decimal, error) {
	if rec.Kind.IsDebit() {
		return decimal.Zero, errors.New("credit requires a credit record kind, got " + string(rec.Kind))
	}
	balance, err := m.accountRepo.WithTx(tx).Credit(ctx, rec.AccountID, rec.Amount)
	if err != nil {
		return decimal.Zero, err
	}
	if err := m.transactionRepo.WithTx(tx).Create(ctx, rec); err != nil {
		return decimal.Zero, err
	}
	m.logger.Debug("Account credited", "account_id", rec.AccountID.String(), "kind", string(rec.Kind), "amount", rec.Amount.String(), "balance", balance.String())
	return balance, nil
}

// Settle finalizes the pending record of a request. The request row is authoritative, so a
// missing pending record is logged and tolerated.
func (m *FundsMoverImpl) Settle(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, status transaction.Status) error {
	err := m.transactionRepo.WithTx(tx).SettleByRequest(ctx, requestID, status)
	if errors.Is(err, transaction.ErrNoPendingRecord{}) {
		m.logger.Warn("No pending transaction record to settle", "request_id", requestID.String(), "status", string(status))
		return nil
	}
	return err
}
