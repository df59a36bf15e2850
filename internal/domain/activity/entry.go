package activity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Entry is one item of an account's activity feed, projected from ledger events.
type Entry struct {
	EventID       string               `json:"event_id" bson:"_id"`
	AccountID     string               `json:"account_id" bson:"account_id"`
	EventType     string               `json:"event_type" bson:"event_type"`
	RequestID     string               `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Amount        primitive.Decimal128 `json:"amount" bson:"amount"`
	Title         string               `json:"title" bson:"title"`
	Message       string               `json:"message" bson:"message"`
	CorrelationID string               `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at" bson:"occurred_at"`
	ProjectedAt   time.Time            `json:"projected_at" bson:"projected_at"`
}
