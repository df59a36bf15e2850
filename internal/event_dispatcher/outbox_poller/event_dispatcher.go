package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/platform/messaging/producers"
)

// Kafka headers set on every ledger event
const (
	HeaderEventType     = "event-type"
	HeaderCorrelationID = "correlation-id"
)

// ErrUndecodablePayload marks an outbox row that can never be dispatched.
var ErrUndecodablePayload = errors.New("undecodable outbox payload")

// EventDispatcherImpl publishes ledger events to Kafka and forwards admin alerts to the bot.
type EventDispatcherImpl struct {
	outboxRepo outbox.Repository
	publisher  producers.EventPublisher
	alerts     AlertSender
	observer   DispatchObserver
	logger     *slog.Logger
}

// NewEventDispatcher creates a dispatcher. alerts and observer may be nil.
func NewEventDispatcher(
	outboxRepo outbox.Repository,
	publisher producers.EventPublisher,
	alerts AlertSender,
	observer DispatchObserver,
	logger *slog.Logger,
) EventDispatcher {
	return &EventDispatcherImpl{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		alerts:     alerts,
		observer:   observer,
		logger:     logger,
	}
}

// Dispatch delivers the message at least once. Any error leaves the row PENDING for the
// poller to retry, except ErrUndecodablePayload which marks it FAILED_TO_PUBLISH here.
// Admin alerts are sent at most once per row and never hold it back: a retry would
// publish the event again and re-alert every chat that was already reached.
func (d *EventDispatcherImpl) Dispatch(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		d.logger.Error("Failed to unmarshal ledger event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			d.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error",
				"outbox_id", message.ID, "update_error", updateErr)
		}
		d.observe(string(message.EventType), ResultFailed)
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodablePayload, message.ID, err)
	}

	logger := d.logger
	if event.CorrelationID != "" {
		logger = d.logger.With("correlation_id", event.CorrelationID)
	}

	headers := map[string]string{HeaderEventType: string(event.Type)}
	if event.CorrelationID != "" {
		headers[HeaderCorrelationID] = event.CorrelationID
	}

	if err := d.publisher.Publish(ctx, event.AccountID.String(), message.Payload, headers); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventID, err)
	}
	logger.Debug("Published ledger event", "outbox_id", message.ID, "event_id", event.EventID, "type", event.Type)

	d.sendAlert(ctx, logger, event)

	if err := d.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", event.EventID, "error", err,
		)
		return fmt.Errorf("event %s delivered, but failed to mark outbox %d as PROCESSED: %w", event.EventID, message.ID, err)
	}

	d.observe(string(event.Type), ResultPublished)
	logger.Info("Outbox message dispatched and marked as PROCESSED", "outbox_id", message.ID, "event_id", event.EventID, "type", event.Type)
	return nil
}

// sendAlert forwards the event's admin alert, if any. Reviewers can still find a
// request whose alert was lost through the pending-requests listing.
func (d *EventDispatcherImpl) sendAlert(ctx context.Context, logger *slog.Logger, event *outbox.LedgerEvent) {
	if event.AdminAlert == nil {
		return
	}
	if d.alerts == nil {
		logger.Warn("Admin alert dropped, bot notifier is not configured", "event_id", event.EventID, "type", event.Type)
		return
	}
	err := d.alerts.SendAlert(ctx, event.AdminAlert)
	if d.observer != nil {
		d.observer.AdminAlert(err)
	}
	if err != nil {
		logger.Error("Admin alert not delivered to every chat", "event_id", event.EventID, "type", event.Type, "error", err)
	}
}

func (d *EventDispatcherImpl) observe(eventType, result string) {
	if d.observer != nil {
		d.observer.OutboxEvent(eventType, result)
	}
}
