package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NotificationRepository implements notification.Repository for PostgreSQL
type NotificationRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewNotificationRepository(logger *slog.Logger, db *persistence.PostgresDB) notification.Repository {
	return &NotificationRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *NotificationRepository) WithTx(tx pgx.Tx) notification.Repository {
	return &NotificationRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, account_id, title, message, category, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query, n.ID, n.AccountID, n.Title, n.Message, n.Category, n.Read, n.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create notification", "account_id", n.AccountID.String(), "error", err)
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	query := `
		SELECT id, account_id, title, message, category, read, created_at
		FROM notifications
		WHERE account_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`

	rows, err := r.querier.Query(ctx, query, accountID, unreadOnly, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notifications", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*notification.Notification, 0)
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Message, &n.Category, &n.Read, &n.CreatedAt); err != nil {
			r.logger.Error("Failed to scan notification", "error", err)
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE account_id = $1 AND read = FALSE`, accountID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count unread notifications", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead is scoped by owner; another account's id reads as not found.
func (r *NotificationRepository) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	tag, err := r.querier.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		r.logger.Error("Failed to mark notification read", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound{NotificationID: id}
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error) {
	tag, err := r.querier.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE account_id = $1 AND read = FALSE`, accountID)
	if err != nil {
		r.logger.Error("Failed to mark notifications read", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	tag, err := r.querier.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		r.logger.Error("Failed to delete notification", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotificationNotFound{NotificationID: id}
	}
	return nil
}
