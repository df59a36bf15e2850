package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrPinLocked is returned while an account's PIN is locked after repeated failures.
type ErrPinLocked struct {
	Until time.Time
}

func (e ErrPinLocked) Error() string {
	return fmt.Sprintf("pin locked until %s", e.Until.UTC().Format(time.RFC3339))
}

// Is matches any ErrPinLocked when the target carries no time.
func (e ErrPinLocked) Is(target error) bool {
	t, ok := target.(ErrPinLocked)
	if !ok {
		return false
	}
	return t.Until.IsZero() || t.Until.Equal(e.Until)
}

// PinAttempts is the failure state kept for one account.
type PinAttempts struct {
	Failures    int
	LockedUntil *time.Time
}

// LockedAt reports whether the PIN is locked at now.
func (p PinAttempts) LockedAt(now time.Time) bool {
	return p.LockedUntil != nil && now.Before(*p.LockedUntil)
}

// PinAttemptRepository stores failure counters outside the ledger transaction, so a
// rolled back operation still counts its wrong PIN.
type PinAttemptRepository interface {
	// Get returns the zero value for an account that never failed.
	Get(ctx context.Context, accountID uuid.UUID) (PinAttempts, error)

	// RecordFailure counts one failure atomically. Reaching maxFailures locks the PIN for
	// lockout and starts a fresh count.
	RecordFailure(ctx context.Context, accountID uuid.UUID, maxFailures int, lockout time.Duration) (PinAttempts, error)

	Reset(ctx context.Context, accountID uuid.UUID) error
}

// PinGuard verifies PINs and locks an account's PIN after maxFailures consecutive wrong
// entries. A nil *PinGuard only compares hashes.
type PinGuard struct {
	attempts    PinAttemptRepository
	maxFailures int
	lockout     time.Duration
	now         func() time.Time
}

func NewPinGuard(attempts PinAttemptRepository, maxFailures int, lockout time.Duration) *PinGuard {
	return &PinGuard{
		attempts:    attempts,
		maxFailures: max(maxFailures, 1),
		lockout:     lockout,
		now:         time.Now,
	}
}

// Verify checks pin against acc. It returns ErrPinLocked while locked, including on the
// failure that triggers the lock, and ErrInvalidPin for other wrong entries.
func (g *PinGuard) Verify(ctx context.Context, acc *Account, pin string) error {
	if g == nil {
		return acc.VerifyPin(pin)
	}

	state, err := g.attempts.Get(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("load pin attempts: %w", err)
	}
	if state.LockedAt(g.now()) {
		return ErrPinLocked{Until: *state.LockedUntil}
	}

	err = acc.VerifyPin(pin)
	switch {
	case err == nil:
		if state.Failures > 0 {
			if err := g.attempts.Reset(ctx, acc.ID); err != nil {
				return fmt.Errorf("reset pin attempts: %w", err)
			}
		}
		return nil
	case errors.Is(err, ErrInvalidPin):
		state, recErr := g.attempts.RecordFailure(ctx, acc.ID, g.maxFailures, g.lockout)
		if recErr != nil {
			return fmt.Errorf("record pin failure: %w", recErr)
		}
		if state.LockedAt(g.now()) {
			return ErrPinLocked{Until: *state.LockedUntil}
		}
		return ErrInvalidPin
	default:
		return err
	}
}
