package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Category groups notifications in the user's inbox
type Category string

const (
	CategoryTransaction Category = "transaction"
	CategoryRequest     Category = "request"
	CategorySecurity    Category = "security"
	CategorySystem      Category = "system"
)

// Notification is a user-facing alert created by a ledger state change.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func New(accountID uuid.UUID, category Category, title, message string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		Title:     title,
		Message:   message,
		Category:  category,
		CreatedAt: time.Now().UTC(),
	}
}

// Repository is the per-account notification inbox. Every method except Create is
// scoped by owner.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, error)
	CountUnread(ctx context.Context, accountID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, accountID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error)
	Delete(ctx context.Context, accountID, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrNotificationNotFound is returned for unknown ids and ids owned by someone else
type ErrNotificationNotFound struct {
	NotificationID uuid.UUID
}

func (e ErrNotificationNotFound) Error() string {
	return "notification not found: " + e.NotificationID.String()
}

func (e ErrNotificationNotFound) Is(target error) bool {
	t, ok := target.(ErrNotificationNotFound)
	if !ok {
		return false
	}
	return t.NotificationID == uuid.Nil || t.NotificationID == e.NotificationID
}
