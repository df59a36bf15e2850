package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists the per-account transaction log
type Repository interface {
	Create(ctx context.Context, record *Record) error

	// SettleByRequest moves the pending record linked to requestID to status.
	// It returns ErrNoPendingRecord when there is none.
	SettleByRequest(ctx context.Context, requestID uuid.UUID, status Status) error

	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Record, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrNoPendingRecord indicates that a request has no pending record left to settle
type ErrNoPendingRecord struct {
	RequestID uuid.UUID
}

func (e ErrNoPendingRecord) Error() string {
	return "no pending transaction record for request: " + e.RequestID.String()
}

func (e ErrNoPendingRecord) Is(target error) bool {
	t, ok := target.(ErrNoPendingRecord)
	if !ok {
		return false
	}
	return t.RequestID == uuid.Nil || t.RequestID == e.RequestID
}
