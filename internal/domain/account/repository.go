package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// Resolve finds an account by exact custom code or username. It returns (nil, nil)
	// when nothing matches.
	Resolve(ctx context.Context, query string) (*Account, error)

	// LockForUpdate acquires row locks in ascending id order and returns the locked
	// accounts keyed by id. Missing ids are reported as ErrAccountNotFound.
	LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Account, error)

	// Debit subtracts amount only if the balance covers it, returning the new balance.
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)

	// SetPinHash replaces the PIN hash only while the stored hash still equals previous
	// (nil for an account without a PIN). Otherwise it returns ErrPinChanged.
	SetPinHash(ctx context.Context, id uuid.UUID, previous *string, pinHash string) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound when the target carries no id.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// ErrDuplicateAccount indicates a uniqueness violation on registration
type ErrDuplicateAccount struct {
	Field string
}

func (e ErrDuplicateAccount) Error() string {
	return "account with this " + e.Field + " already exists"
}

func (e ErrDuplicateAccount) Is(target error) bool {
	t, ok := target.(ErrDuplicateAccount)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}
