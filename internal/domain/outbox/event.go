package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names a ledger state change
type EventType string

const (
	EventTransferCompleted   EventType = "transfer.completed"
	EventWithdrawalRequested EventType = "withdrawal.requested"
	EventWithdrawalApproved  EventType = "withdrawal.approved"
	EventWithdrawalRejected  EventType = "withdrawal.rejected"
	EventDepositSubmitted    EventType = "deposit.submitted"
	EventDepositApproved     EventType = "deposit.approved"
	EventDepositRejected     EventType = "deposit.rejected"
	EventOrderPlaced         EventType = "order.placed"
	EventOrderApproved       EventType = "order.approved"
	EventOrderRejected       EventType = "order.rejected"
	EventKycSubmitted        EventType = "kyc.submitted"
	EventKycApproved         EventType = "kyc.approved"
	EventKycRejected         EventType = "kyc.rejected"
)

// Action is an inline button attached to an admin alert.
type Action struct {
	Label        string `json:"label"`
	CallbackData string `json:"callback_data"`
}

// AdminAlert is the HTML message sent to reviewers through the bot.
type AdminAlert struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

// LedgerEvent is the notification intent written in the same transaction as the ledger
// mutation it describes.
type LedgerEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	Type          EventType       `json:"type"`
	AccountID     uuid.UUID       `json:"account_id"`
	RequestID     *uuid.UUID      `json:"request_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Title         string          `json:"title"`
	Message       string          `json:"message"`
	AdminAlert    *AdminAlert     `json:"admin_alert,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewLedgerEvent(t EventType, accountID uuid.UUID, amount decimal.Decimal, title, message string) *LedgerEvent {
	return &LedgerEvent{
		EventID:    uuid.New(),
		Type:       t,
		AccountID:  accountID,
		Amount:     amount,
		Title:      title,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}
