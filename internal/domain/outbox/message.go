package outbox

import (
	"encoding/json"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message is a row of the event outbox
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	AccountID     uuid.UUID           `json:"account_id"`
	EventType     EventType           `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *LedgerEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:   event.EventID,
		AccountID: event.AccountID,
		EventType: event.Type,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Event decodes the payload
func (m *Message) Event() (*LedgerEvent, error) {
	var event LedgerEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ExhaustedAfter reports whether one more failed attempt reaches maxAttempts.
func (m *Message) ExhaustedAfter(maxAttempts int) bool {
	return m.Attempts+1 >= maxAttempts
}
