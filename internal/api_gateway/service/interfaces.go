package service

import (
	"context"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/activity"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// AccountService covers registration, profile and the account's read models.
// Money movements go through the ledger engine instead.
type AccountService interface {
	// Register creates the account of an authenticated principal. The principal id from
	// the identity provider becomes the account id.
	// Returns ErrDuplicateAccount when the id, username, email or phone is taken.
	Register(ctx context.Context, principalID uuid.UUID, reg account.Registration) (*account.Account, error)

	// GetProfile returns ErrAccountNotFound if the account doesn't exist
	GetProfile(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// Resolve looks up a transfer recipient by custom code or username.
	Resolve(ctx context.Context, query string) (*account.Account, error)

	// SetPin sets the transaction PIN. Changing an existing PIN requires the current one.
	SetPin(ctx context.Context, id uuid.UUID, currentPin, newPin string) error

	ListTransactions(ctx context.Context, id uuid.UUID, limit, offset int) ([]*transaction.Record, int64, error)
	ListActivity(ctx context.Context, id uuid.UUID, limit, offset int) ([]*activity.Entry, int64, error)

	// Purge deletes an account with its records, requests and notifications.
	Purge(ctx context.Context, id uuid.UUID) error
}

// NotificationService manages a user's inbox. Ids owned by another account behave as
// not found.
type NotificationService interface {
	// List returns a page of notifications and the unread count.
	List(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, int64, error)
	MarkRead(ctx context.Context, accountID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error)
	Delete(ctx context.Context, accountID, id uuid.UUID) error
}

// CatalogService lists the methods and services offered to an account and lets admins
// add new ones.
type CatalogService interface {
	DepositMethods(ctx context.Context, accountID uuid.UUID) ([]*catalog.DepositMethod, error)
	WithdrawalMethods(ctx context.Context, accountID uuid.UUID) ([]*catalog.WithdrawalMethod, error)
	Services(ctx context.Context) ([]*catalog.Service, error)

	CreateDepositMethod(ctx context.Context, m *catalog.DepositMethod) (*catalog.DepositMethod, error)
	CreateWithdrawalMethod(ctx context.Context, m *catalog.WithdrawalMethod) (*catalog.WithdrawalMethod, error)
	CreateService(ctx context.Context, s *catalog.Service) (*catalog.Service, error)
}
