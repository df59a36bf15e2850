package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/activity"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Projection results reported to the observer
const (
	ResultProjected    = "projected"
	ResultDeadLettered = "dead_lettered"
	ResultFailed       = "failed"
)

// ActivityObserver records projection outcomes. *metrics.Collector satisfies it.
type ActivityObserver interface {
	ActivityEvent(result string)
}

// ActivityProjector turns ledger events from Kafka into activity feed entries
type ActivityProjector struct {
	activityRepo activity.Repository
	producer     producers.DeadLetterPublisher
	observer     ActivityObserver
	logger       *slog.Logger
}

func NewActivityProjector(
	logger *slog.Logger,
	activityRepo activity.Repository,
	producer producers.DeadLetterPublisher,
	observer ActivityObserver,
) *ActivityProjector {
	return &ActivityProjector{
		activityRepo: activityRepo,
		producer:     producer,
		observer:     observer,
		logger:       logger,
	}
}

// HandleMessage projects one event. Returning nil commits the offset.
func (h *ActivityProjector) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	entry, err := decodeEntry(value)
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger
	if entry.CorrelationID != "" {
		logger = h.logger.With("correlation_id", entry.CorrelationID)
	}

	if err := h.activityRepo.Upsert(ctx, entry); err != nil {
		logger.Error("Failed to project ledger event", "event_id", entry.EventID, "error", err)
		h.observe(ResultFailed)
		return fmt.Errorf("projecting event %s failed: %w", entry.EventID, err)
	}

	logger.Debug("Projected ledger event", "event_id", entry.EventID, "account_id", entry.AccountID, "type", entry.EventType)
	h.observe(ResultProjected)
	return nil
}

func (h *ActivityProjector) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	h.logger.Error("Failed to decode ledger event from Kafka message", "error", cause, "message_key", string(key))

	if h.producer == nil {
		h.observe(ResultFailed)
		return fmt.Errorf("failed to decode message value: %w", cause)
	}

	reason := "undecodable ledger event: " + cause.Error()
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ after decode error",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		h.observe(ResultFailed)
		return fmt.Errorf("failed to decode message value: %w", cause)
	}

	h.logger.Info("Published undecodable message to DLQ", "message_key", string(key))
	h.observe(ResultDeadLettered)
	return nil
}

func (h *ActivityProjector) observe(result string) {
	if h.observer != nil {
		h.observer.ActivityEvent(result)
	}
}

func decodeEntry(value []byte) (*activity.Entry, error) {
	var event outbox.LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return nil, err
	}
	if event.EventID == uuid.Nil || event.AccountID == uuid.Nil || event.Type == "" {
		return nil, fmt.Errorf("event is missing event_id, account_id or type")
	}

	amount, err := primitive.ParseDecimal128(event.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("amount %s: %w", event.Amount, err)
	}

	entry := &activity.Entry{
		EventID:       event.EventID.String(),
		AccountID:     event.AccountID.String(),
		EventType:     string(event.Type),
		Amount:        amount,
		Title:         event.Title,
		Message:       event.Message,
		CorrelationID: event.CorrelationID,
		OccurredAt:    event.OccurredAt,
		ProjectedAt:   time.Now().UTC(),
	}
	if event.RequestID != nil {
		entry.RequestID = event.RequestID.String()
	}
	return entry, nil
}
