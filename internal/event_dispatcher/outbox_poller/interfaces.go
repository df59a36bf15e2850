package outbox_poller

import (
	"context"

	"github.com/flash-wallet-ledger/internal/domain/outbox"
)

// EventDispatcher delivers one outbox message and marks it PROCESSED
type EventDispatcher interface {
	Dispatch(ctx context.Context, message *outbox.Message) error
}

// AlertSender delivers admin review alerts
type AlertSender interface {
	SendAlert(ctx context.Context, alert *outbox.AdminAlert) error
}

// DispatchObserver records dispatch outcomes. *metrics.Collector satisfies it.
type DispatchObserver interface {
	OutboxEvent(eventType, result string)
	AdminAlert(err error)
}

// Dispatch results
const (
	ResultPublished = "published"
	ResultRetry     = "retry"
	ResultFailed    = "failed"
)
