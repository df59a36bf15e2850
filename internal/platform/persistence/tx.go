package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flash-wallet-ledger/internal/config"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// TxRunner executes a function inside one database transaction and re-runs it from the
// start on serialization failures and deadlocks. fn must not have side effects outside
// the transaction.
type TxRunner struct {
	db          TxBeginner
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

func NewTxRunner(db TxBeginner, cfg config.LedgerConfig, logger *slog.Logger) *TxRunner {
	maxAttempts := cfg.TxMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &TxRunner{
		db:          db,
		maxAttempts: maxAttempts,
		backoff:     cfg.TxRetryBackoff,
		logger:      logger,
	}
}

// RunInTx commits when fn returns nil and rolls back otherwise. Errors returned by fn are
// passed through unchanged unless retries are exhausted, except numeric overflow which
// becomes a shared.ValidationError. Failures to begin or commit are reported as
// shared.StoreError.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		if attempt == r.maxAttempts {
			break
		}

		r.logger.Warn("Transaction conflict, retrying", "attempt", attempt, "max_attempts", r.maxAttempts, "error", err)
		select {
		case <-ctx.Done():
			return shared.StoreError{Op: "transaction retry", Err: ctx.Err()}
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}
	return shared.StoreError{Op: fmt.Sprintf("transaction after %d attempts", r.maxAttempts), Err: err}
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return shared.StoreError{Op: "begin transaction", Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			r.logger.Error("Failed to rollback transaction", "rollback_error", rbErr, "original_error", err)
		}
		if IsNumericOverflow(err) {
			return shared.NewValidationError("amount", "is too large")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if IsRetryable(err) {
			return err
		}
		return shared.StoreError{Op: "commit transaction", Err: err}
	}
	return nil
}
