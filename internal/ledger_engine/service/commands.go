package service

import (
	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferCommand sends Amount from SenderID to the account matching RecipientCode
// (custom code or username).
type TransferCommand struct {
	SenderID      uuid.UUID
	RecipientCode string
	Amount        decimal.Decimal
	Pin           string
}

// TransferResult describes a committed transfer from the sender's side.
type TransferResult struct {
	Record    *transaction.Record
	Balance   decimal.Decimal
	Recipient *account.Account
}

type WithdrawalCommand struct {
	AccountID    uuid.UUID
	MethodID     uuid.UUID
	Amount       decimal.Decimal
	Pin          string
	PayoutFields map[string]string
}

type DepositCommand struct {
	AccountID uuid.UUID
	MethodID  uuid.UUID
	Amount    decimal.Decimal
	ProofURL  string
}

// PurchaseCommand buys a marketplace service. VariantIndex is required for services
// sold in variants.
type PurchaseCommand struct {
	AccountID    uuid.UUID
	ServiceID    uuid.UUID
	VariantIndex *int
	UserInput    string
	Pin          string
}

type KycCommand struct {
	AccountID        uuid.UUID
	DocumentType     string
	DocumentFrontURL string
	DocumentBackURL  string
	SelfieURL        string
}

// Decision is a reviewer's verdict on a pending request. Reason applies to rejections,
// ResultPayload to order approvals.
type Decision struct {
	Type          request.Type
	Action        request.Action
	RequestID     uuid.UUID
	Reason        string
	ResultPayload string
}
