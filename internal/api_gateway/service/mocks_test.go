package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/activity"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Resolve(ctx context.Context, query string) (*account.Account, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) SetPinHash(ctx context.Context, id uuid.UUID, previous *string, pinHash string) error {
	args := m.Called(ctx, id, previous, pinHash)
	return args.Error(0)
}

func (m *MockAccountRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return m
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, record *transaction.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockTransactionRepository) SettleByRequest(ctx context.Context, requestID uuid.UUID, status transaction.Status) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Record, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Record), args.Error(1)
}

func (m *MockTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return m
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Upsert(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityRepository) GetByEventID(ctx context.Context, eventID string) (*activity.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.Entry), args.Error(1)
}

func (m *MockActivityRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*activity.Entry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*activity.Entry), args.Error(1)
}

func (m *MockActivityRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, error) {
	args := m.Called(ctx, accountID, unreadOnly, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*notification.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	args := m.Called(ctx, accountID, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	args := m.Called(ctx, accountID, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) WithTx(tx pgx.Tx) notification.Repository {
	return m
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListDepositMethods(ctx context.Context, country string) ([]*catalog.DepositMethod, error) {
	args := m.Called(ctx, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.DepositMethod), args.Error(1)
}

func (m *MockCatalogRepository) GetDepositMethod(ctx context.Context, id uuid.UUID) (*catalog.DepositMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.DepositMethod), args.Error(1)
}

func (m *MockCatalogRepository) CreateDepositMethod(ctx context.Context, dm *catalog.DepositMethod) error {
	args := m.Called(ctx, dm)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListWithdrawalMethods(ctx context.Context, country string) ([]*catalog.WithdrawalMethod, error) {
	args := m.Called(ctx, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.WithdrawalMethod), args.Error(1)
}

func (m *MockCatalogRepository) GetWithdrawalMethod(ctx context.Context, id uuid.UUID) (*catalog.WithdrawalMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.WithdrawalMethod), args.Error(1)
}

func (m *MockCatalogRepository) CreateWithdrawalMethod(ctx context.Context, wm *catalog.WithdrawalMethod) error {
	args := m.Called(ctx, wm)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Service), args.Error(1)
}

func (m *MockCatalogRepository) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Service), args.Error(1)
}

func (m *MockCatalogRepository) CreateService(ctx context.Context, s *catalog.Service) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockCatalogRepository) WithTx(tx pgx.Tx) catalog.Repository {
	return m
}
