package outbox_poller

import (
	"context"
	"sync"

	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	args := m.Called(ctx, key, value, headers)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	return m.Called().Error(0)
}

type MockAlertSender struct {
	mock.Mock
}

func (m *MockAlertSender) SendAlert(ctx context.Context, alert *outbox.AdminAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type MockEventDispatcher struct {
	mock.Mock
}

func (m *MockEventDispatcher) Dispatch(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// recordingObserver collects results; the poller calls it from pool workers.
type recordingObserver struct {
	mu      sync.Mutex
	results []string
	alerts  []error
}

func (o *recordingObserver) OutboxEvent(eventType, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, eventType+":"+result)
}

func (o *recordingObserver) AdminAlert(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.alerts = append(o.alerts, err)
}
