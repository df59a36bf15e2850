package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const outboxColumns = `id, event_id, account_id, event_type, payload, status, attempts, created_at, last_attempt_at`

// OutboxRepository stores ledger events until the dispatcher has published them.
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{querier: db.Pool(), logger: logger}
}

// WithTx binds the repository to tx so events commit together with the ledger change
// that produced them.
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{querier: tx, logger: r.logger}
}

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	const insertEvent = `
		INSERT INTO event_outbox (event_id, account_id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	row := r.querier.QueryRow(ctx, insertEvent,
		message.EventID, message.AccountID, message.EventType, message.Payload,
		message.Status, message.Attempts, message.CreatedAt,
	)
	if err := row.Scan(&message.ID); err != nil {
		r.logger.Error("Could not enqueue ledger event",
			"event_id", message.EventID.String(),
			"event_type", string(message.EventType),
			"account_id", message.AccountID.String(),
			"error", err,
		)
		return fmt.Errorf("enqueue %s event: %w", message.EventType, err)
	}
	return nil
}

// GetPending returns up to limit unpublished events in commit order.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx,
		`SELECT `+outboxColumns+` FROM event_outbox WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2`,
		shared.OutboxStatusPending, limit,
	)
	if err != nil {
		r.logger.Error("Outbox poll query failed", "limit", limit, "error", err)
		return nil, fmt.Errorf("poll outbox: %w", err)
	}

	messages, err := pgx.CollectRows(rows, scanOutboxMessage)
	if err != nil {
		r.logger.Error("Outbox poll returned unreadable rows", "error", err)
		return nil, fmt.Errorf("read outbox rows: %w", err)
	}
	return messages, nil
}

func scanOutboxMessage(row pgx.CollectableRow) (*outbox.Message, error) {
	m := new(outbox.Message)
	err := row.Scan(
		&m.ID, &m.EventID, &m.AccountID, &m.EventType, &m.Payload,
		&m.Status, &m.Attempts, &m.CreatedAt, &m.LastAttemptAt,
	)
	return m, err
}

// UpdateStatus moves an event to status and stamps last_attempt_at.
func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(ctx, id, "mark "+string(status),
		`UPDATE event_outbox SET status = $1, last_attempt_at = now() WHERE id = $2`,
		status, id,
	)
}

// IncrementAttempts records one more failed publish.
func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, id, "count attempt",
		`UPDATE event_outbox SET attempts = attempts + 1, last_attempt_at = now() WHERE id = $1`,
		id,
	)
}

// touch runs a single-row update and reports a missing row as ErrMessageNotFound.
func (r *OutboxRepository) touch(ctx context.Context, id int64, op, query string, args ...any) error {
	tag, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Outbox update failed", "op", op, "id", id, "error", err)
		return fmt.Errorf("outbox %s on %d: %w", op, id, err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}
