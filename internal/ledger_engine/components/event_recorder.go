package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/jackc/pgx/v5"
)

// EventRecorderImpl implements the EventRecorder interface
type EventRecorderImpl struct {
	notificationRepo notification.Repository
	outboxRepo       outbox.Repository
	logger           *slog.Logger
}

func NewEventRecorder(notificationRepo notification.Repository, outboxRepo outbox.Repository, logger *slog.Logger) service.EventRecorder {
	return &EventRecorderImpl{
		notificationRepo: notificationRepo,
		outboxRepo:       outboxRepo,
		logger:           logger,
	}
}

func (r *EventRecorderImpl) Notify(ctx context.Context, tx pgx.Tx, n *notification.Notification) error {
	return r.notificationRepo.WithTx(tx).Create(ctx, n)
}

// Publish stamps the event with the request's correlation id and stages it in the outbox.
func (r *EventRecorderImpl) Publish(ctx context.Context, tx pgx.Tx, event *outbox.LedgerEvent) error {
	if event.CorrelationID == "" {
		event.CorrelationID = shared.CorrelationID(ctx)
	}

	msg, err := outbox.NewMessage(event)
	if err != nil {
		r.logger.Error("Failed to encode ledger event", "event_id", event.EventID.String(), "type", string(event.Type), "error", err)
		return fmt.Errorf("failed to encode ledger event: %w", err)
	}
	if err := r.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		return err
	}

	r.logger.Debug("Ledger event staged", "event_id", event.EventID.String(), "type", string(event.Type), "account_id", event.AccountID.String())
	return nil
}
