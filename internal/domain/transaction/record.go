package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a money movement from the owning account's point of view
type Kind string

const (
	KindSend     Kind = "send"
	KindReceive  Kind = "receive"
	KindWithdraw Kind = "withdraw"
	KindDeposit  Kind = "deposit"
	KindPurchase Kind = "purchase"
	KindRefund   Kind = "refund"
)

// IsDebit reports whether the kind lowers the owner's balance.
func (k Kind) IsDebit() bool {
	return k == KindSend || k == KindWithdraw || k == KindPurchase
}

// Status of a transaction record
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusRejected  Status = "rejected"
)

// RefundCounterparty is shown as the source of refunds.
const RefundCounterparty = "SYSTEM REFUND"

// Record is one entry of an account's transaction log.
type Record struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty *string         `json:"counterparty,omitempty"`
	RequestID    *uuid.UUID      `json:"request_id,omitempty"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewRecord builds a record; counterparty and requestID are optional.
func NewRecord(accountID uuid.UUID, kind Kind, amount decimal.Decimal, status Status, counterparty string, requestID *uuid.UUID) *Record {
	now := time.Now().UTC()
	r := &Record{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		RequestID: requestID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if counterparty != "" {
		r.Counterparty = &counterparty
	}
	return r
}

// CanSettle reports whether a record in status from may move to to.
// Only pending records change, and only once.
func CanSettle(from, to Status) bool {
	return from == StatusPending && (to == StatusCompleted || to == StatusRejected)
}
