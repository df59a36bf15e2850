package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const requestColumns = `id, type, account_id, amount, status, details, rejection_reason, result_payload, created_at, reviewed_at`

// RequestRepository implements request.Repository for PostgreSQL. Variant details are
// stored as JSONB next to the common columns.
type RequestRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewRequestRepository(logger *slog.Logger, db *persistence.PostgresDB) request.Repository {
	return &RequestRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *RequestRepository) WithTx(tx pgx.Tx) request.Repository {
	return &RequestRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	details, err := req.MarshalDetails()
	if err != nil {
		return fmt.Errorf("failed to encode request details: %w", err)
	}

	query := `
		INSERT INTO review_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.querier.Exec(ctx, query,
		req.ID,
		req.Type,
		req.AccountID,
		req.Amount,
		req.Status,
		details,
		req.RejectionReason,
		req.ResultPayload,
		req.CreatedAt,
		req.ReviewedAt,
	)
	if err != nil {
		if constraint, ok := persistence.UniqueViolation(err); ok && constraint == "review_requests_one_pending_kyc" {
			return shared.NewValidationError("kyc", "a verification request is already pending")
		}
		r.logger.Error("Failed to create request", "type", req.Type, "account_id", req.AccountID.String(), "error", err)
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM review_requests WHERE id = $1`

	req, err := scanRequest(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to get request", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (r *RequestRepository) LockForUpdate(ctx context.Context, id uuid.UUID, t request.Type) (*request.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM review_requests WHERE id = $1 AND type = $2 FOR UPDATE`

	req, err := scanRequest(r.querier.QueryRow(ctx, query, id, t))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, request.ErrRequestNotFound{RequestID: id}
		}
		r.logger.Error("Failed to lock request", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock request: %w", err)
	}
	return req, nil
}

// SaveReview writes the reviewed state guarded by status = 'pending', so a row can leave
// pending only once even without a prior lock.
func (r *RequestRepository) SaveReview(ctx context.Context, req *request.Request) error {
	query := `
		UPDATE review_requests
		SET status = $2, rejection_reason = $3, result_payload = $4, reviewed_at = $5
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.querier.Exec(ctx, query, req.ID, req.Status, req.RejectionReason, req.ResultPayload, req.ReviewedAt)
	if err != nil {
		r.logger.Error("Failed to save request review", "id", req.ID.String(), "error", err)
		return fmt.Errorf("failed to save request review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return request.ErrAlreadyProcessed{RequestID: req.ID, Status: req.Status}
	}
	return nil
}

// ListPending returns the queue for one type, newest first.
func (r *RequestRepository) ListPending(ctx context.Context, t request.Type, limit, offset int) ([]*request.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM review_requests
		WHERE type = $1 AND status = 'pending'
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, "list pending requests", query, t, limit, offset)
}

func (r *RequestRepository) CountPending(ctx context.Context, t request.Type) (int64, error) {
	var count int64
	err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM review_requests WHERE type = $1 AND status = 'pending'`, t).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count pending requests", "type", t, "error", err)
		return 0, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return count, nil
}

func (r *RequestRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM review_requests
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, "list account requests", query, accountID, limit, offset)
}

func (r *RequestRepository) HasPending(ctx context.Context, accountID uuid.UUID, t request.Type) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM review_requests WHERE account_id = $1 AND type = $2 AND status = 'pending')`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, accountID, t).Scan(&exists); err != nil {
		r.logger.Error("Failed to check pending requests", "account_id", accountID.String(), "error", err)
		return false, fmt.Errorf("failed to check pending requests: %w", err)
	}
	return exists, nil
}

func (r *RequestRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*request.Request, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	requests := make([]*request.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			r.logger.Error("Failed to scan request", "error", err)
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}
	return requests, nil
}

func scanRequest(row pgx.Row) (*request.Request, error) {
	var (
		req     request.Request
		details []byte
	)
	err := row.Scan(
		&req.ID,
		&req.Type,
		&req.AccountID,
		&req.Amount,
		&req.Status,
		&details,
		&req.RejectionReason,
		&req.ResultPayload,
		&req.CreatedAt,
		&req.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := req.UnmarshalDetails(details); err != nil {
		return nil, fmt.Errorf("failed to decode %s details: %w", req.Type, err)
	}
	return &req, nil
}
