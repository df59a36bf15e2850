package request

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists the review queue
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// LockForUpdate locks a request of the given type. A request of another type is
	// reported as ErrRequestNotFound.
	LockForUpdate(ctx context.Context, id uuid.UUID, t Type) (*Request, error)

	// SaveReview persists a transition out of pending. It returns ErrAlreadyProcessed
	// when the stored row is no longer pending.
	SaveReview(ctx context.Context, r *Request) error

	ListPending(ctx context.Context, t Type, limit, offset int) ([]*Request, error)
	CountPending(ctx context.Context, t Type) (int64, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Request, error)
	HasPending(ctx context.Context, accountID uuid.UUID, t Type) (bool, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRequestNotFound indicates missing request
type ErrRequestNotFound struct {
	RequestID uuid.UUID
}

func (e ErrRequestNotFound) Error() string {
	return "request not found: " + e.RequestID.String()
}

func (e ErrRequestNotFound) Is(target error) bool {
	t, ok := target.(ErrRequestNotFound)
	if !ok {
		return false
	}
	return t.RequestID == uuid.Nil || t.RequestID == e.RequestID
}

// ErrAlreadyProcessed is returned when approving or rejecting a request that has already
// left pending. Callers treat it as a benign no-op.
type ErrAlreadyProcessed struct {
	RequestID uuid.UUID
	Status    Status
}

func (e ErrAlreadyProcessed) Error() string {
	return "request " + e.RequestID.String() + " already processed: " + string(e.Status)
}

func (e ErrAlreadyProcessed) Is(target error) bool {
	t, ok := target.(ErrAlreadyProcessed)
	if !ok {
		return false
	}
	return t.RequestID == uuid.Nil || t.RequestID == e.RequestID
}
