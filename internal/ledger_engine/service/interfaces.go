package service

import (
	"context"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// LedgerService moves money on behalf of account holders. Each call is one atomic unit:
// balance changes, records, notifications and outbox events commit together or not at all.
type LedgerService interface {
	Transfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error)
	RequestWithdrawal(ctx context.Context, cmd WithdrawalCommand) (*request.Request, error)
	SubmitDeposit(ctx context.Context, cmd DepositCommand) (*request.Request, error)
	Purchase(ctx context.Context, cmd PurchaseCommand) (*request.Request, error)
	SubmitKyc(ctx context.Context, cmd KycCommand) (*request.Request, error)
}

// ReviewService resolves pending requests. Approve and reject take effect at most once per
// request; a second decision returns request.ErrAlreadyProcessed without side effects.
type ReviewService interface {
	ApproveWithdrawal(ctx context.Context, requestID uuid.UUID) (*request.Request, error)
	RejectWithdrawal(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error)
	ApproveDeposit(ctx context.Context, requestID uuid.UUID) (*request.Request, error)
	RejectDeposit(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error)
	ApproveOrder(ctx context.Context, requestID uuid.UUID, resultPayload string) (*request.Request, error)
	RejectOrder(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error)
	ApproveKyc(ctx context.Context, requestID uuid.UUID) (*request.Request, error)
	RejectKyc(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error)

	// Review dispatches a decision to the matching approve or reject operation.
	Review(ctx context.Context, d Decision) (*request.Request, error)

	ListPending(ctx context.Context, t request.Type, limit, offset int) ([]*request.Request, int64, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*request.Request, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.Request, error)
}

// TxRunner runs fn inside one database transaction, retrying it on conflicts.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// FundsMover applies a balance change and appends the matching transaction record.
type FundsMover interface {
	// Debit fails with account.ErrInsufficientFunds when the balance does not cover the
	// record's amount. It returns the new balance.
	Debit(ctx context.Context, tx pgx.Tx, rec *transaction.Record) (decimal.Decimal, error)
	Credit(ctx context.Context, tx pgx.Tx, rec *transaction.Record) (decimal.Decimal, error)

	// Settle moves the pending record linked to requestID to status.
	Settle(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, status transaction.Status) error
}

// PinGate authorizes a funds movement against an account row locked in the current
// transaction.
type PinGate interface {
	Authorize(ctx context.Context, acc *account.Account, pin string) error
}

// EventRecorder writes user notifications and outbox events within a transaction.
type EventRecorder interface {
	Notify(ctx context.Context, tx pgx.Tx, n *notification.Notification) error
	Publish(ctx context.Context, tx pgx.Tx, event *outbox.LedgerEvent) error
}
