package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements transaction.Repository for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, record *transaction.Record) error {
	query := `
		INSERT INTO transactions (id, account_id, kind, amount, counterparty, request_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		record.ID,
		record.AccountID,
		record.Kind,
		record.Amount,
		record.Counterparty,
		record.RequestID,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction record", "account_id", record.AccountID.String(), "kind", record.Kind, "error", err)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}

	return nil
}

// SettleByRequest flips the pending record of a reviewed request. The status guard
// makes a second settlement a no-op that reports ErrNoPendingRecord.
func (r *TransactionRepository) SettleByRequest(ctx context.Context, requestID uuid.UUID, status transaction.Status) error {
	query := `
		UPDATE transactions
		SET status = $2, updated_at = NOW()
		WHERE request_id = $1 AND status = 'pending'
	`

	tag, err := r.querier.Exec(ctx, query, requestID, status)
	if err != nil {
		r.logger.Error("Failed to settle transaction record", "request_id", requestID.String(), "error", err)
		return fmt.Errorf("failed to settle transaction record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return transaction.ErrNoPendingRecord{RequestID: requestID}
	}

	return nil
}

// ListByAccount returns the account's records, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Record, error) {
	query := `
		SELECT id, account_id, kind, amount, counterparty, request_id, status, created_at, updated_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	records := make([]*transaction.Record, 0)
	for rows.Next() {
		var rec transaction.Record
		if err := rows.Scan(
			&rec.ID,
			&rec.AccountID,
			&rec.Kind,
			&rec.Amount,
			&rec.Counterparty,
			&rec.RequestID,
			&rec.Status,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan transaction", "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return records, nil
}

func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count transactions", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
