package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PinAttemptRepository implements account.PinAttemptRepository. It always runs on the
// pool so a failure is counted even when the surrounding ledger transaction rolls back.
type PinAttemptRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewPinAttemptRepository(logger *slog.Logger, db *persistence.PostgresDB) account.PinAttemptRepository {
	return &PinAttemptRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *PinAttemptRepository) Get(ctx context.Context, accountID uuid.UUID) (account.PinAttempts, error) {
	var state account.PinAttempts
	err := r.querier.QueryRow(ctx,
		`SELECT failures, locked_until FROM pin_attempts WHERE account_id = $1`, accountID,
	).Scan(&state.Failures, &state.LockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return account.PinAttempts{}, nil
	}
	if err != nil {
		r.logger.Error("Failed to load pin attempts", "account_id", accountID.String(), "error", err)
		return account.PinAttempts{}, fmt.Errorf("failed to load pin attempts: %w", err)
	}
	return state, nil
}

// RecordFailure counts the failure in a single upsert. The row that reaches maxFailures
// is locked and its count cleared in the same statement.
func (r *PinAttemptRepository) RecordFailure(ctx context.Context, accountID uuid.UUID, maxFailures int, lockout time.Duration) (account.PinAttempts, error) {
	query := `
		INSERT INTO pin_attempts AS p (account_id, failures, locked_until, updated_at)
		VALUES (
			$1,
			CASE WHEN $2::int <= 1 THEN 0 ELSE 1 END,
			CASE WHEN $2::int <= 1 THEN NOW() + make_interval(secs => $3::float8) END,
			NOW()
		)
		ON CONFLICT (account_id) DO UPDATE SET
			failures     = CASE WHEN p.failures + 1 >= $2::int THEN 0 ELSE p.failures + 1 END,
			locked_until = CASE WHEN p.failures + 1 >= $2::int THEN NOW() + make_interval(secs => $3::float8) END,
			updated_at   = NOW()
		RETURNING failures, locked_until
	`

	var state account.PinAttempts
	err := r.querier.QueryRow(ctx, query, accountID, maxFailures, lockout.Seconds()).
		Scan(&state.Failures, &state.LockedUntil)
	if err != nil {
		r.logger.Error("Failed to record pin failure", "account_id", accountID.String(), "error", err)
		return account.PinAttempts{}, fmt.Errorf("failed to record pin failure: %w", err)
	}
	if state.LockedUntil != nil {
		r.logger.Warn("PIN locked after repeated failures",
			"account_id", accountID.String(),
			"locked_until", state.LockedUntil.UTC(),
		)
	}
	return state, nil
}

func (r *PinAttemptRepository) Reset(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.querier.Exec(ctx, `DELETE FROM pin_attempts WHERE account_id = $1`, accountID); err != nil {
		r.logger.Error("Failed to reset pin attempts", "account_id", accountID.String(), "error", err)
		return fmt.Errorf("failed to reset pin attempts: %w", err)
	}
	return nil
}
