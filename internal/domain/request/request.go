package request

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type partitions the review queue
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeOrder      Type = "order"
	TypeKyc        Type = "kyc"
)

// ParseType validates a type coming from user input.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(s)); t {
	case TypeDeposit, TypeWithdrawal, TypeOrder, TypeKyc:
		return t, nil
	}
	return "", shared.NewValidationError("type", "must be one of deposit, withdrawal, order, kyc")
}

// Status of a reviewable request
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DepositDetails describe a user's claim to have sent funds.
type DepositDetails struct {
	MethodID   uuid.UUID `json:"method_id"`
	MethodName string    `json:"method_name"`
	ProofURL   string    `json:"proof_url"`
}

// WithdrawalDetails hold the payout quote locked when the request was created.
type WithdrawalDetails struct {
	MethodID     uuid.UUID         `json:"method_id"`
	MethodName   string            `json:"method_name"`
	Quote        catalog.Quote     `json:"quote"`
	PayoutFields map[string]string `json:"payout_fields"`
}

// OrderDetails capture the purchased service and the buyer's input.
type OrderDetails struct {
	ServiceID    uuid.UUID `json:"service_id"`
	ServiceName  string    `json:"service_name"`
	Category     string    `json:"category"`
	VariantIndex *int      `json:"variant_index,omitempty"`
	VariantLabel string    `json:"variant_label,omitempty"`
	UserInput    string    `json:"user_input,omitempty"`
}

// KycDetails reference the uploaded identity documents.
type KycDetails struct {
	DocumentType     string `json:"document_type"`
	DocumentFrontURL string `json:"document_front_url"`
	DocumentBackURL  string `json:"document_back_url,omitempty"`
	SelfieURL        string `json:"selfie_url,omitempty"`
}

// Request is a human-reviewable action. Exactly one of the detail pointers is set, the
// one matching Type.
type Request struct {
	ID              uuid.UUID       `json:"id"`
	Type            Type            `json:"type"`
	AccountID       uuid.UUID       `json:"account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          Status          `json:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	ResultPayload   *string         `json:"result_payload,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`

	Deposit    *DepositDetails    `json:"deposit,omitempty"`
	Withdrawal *WithdrawalDetails `json:"withdrawal,omitempty"`
	Order      *OrderDetails      `json:"order,omitempty"`
	Kyc        *KycDetails        `json:"kyc,omitempty"`
}

func newPending(t Type, accountID uuid.UUID, amount decimal.Decimal) *Request {
	return &Request{
		ID:        uuid.New(),
		Type:      t,
		AccountID: accountID,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func NewDeposit(accountID uuid.UUID, amount decimal.Decimal, d DepositDetails) (*Request, error) {
	r := newPending(TypeDeposit, accountID, amount)
	r.Deposit = &d
	return r, r.Validate()
}

func NewWithdrawal(accountID uuid.UUID, d WithdrawalDetails) (*Request, error) {
	r := newPending(TypeWithdrawal, accountID, d.Quote.Amount)
	r.Withdrawal = &d
	return r, r.Validate()
}

func NewOrder(accountID uuid.UUID, price decimal.Decimal, d OrderDetails) (*Request, error) {
	r := newPending(TypeOrder, accountID, price)
	r.Order = &d
	return r, r.Validate()
}

func NewKyc(accountID uuid.UUID, d KycDetails) (*Request, error) {
	r := newPending(TypeKyc, accountID, decimal.Zero)
	r.Kyc = &d
	return r, r.Validate()
}

// Validate enforces the required-field set of the request's variant.
func (r *Request) Validate() error {
	if r.AccountID == uuid.Nil {
		return shared.NewValidationError("account_id", "is required")
	}
	switch r.Type {
	case TypeDeposit:
		if r.Deposit == nil {
			return shared.NewValidationError("deposit", "details are required")
		}
		if r.Deposit.MethodID == uuid.Nil {
			return shared.NewValidationError("method_id", "is required")
		}
		if strings.TrimSpace(r.Deposit.ProofURL) == "" {
			return shared.NewValidationError("proof_url", "is required")
		}
		return shared.ValidateAmount("amount", r.Amount)
	case TypeWithdrawal:
		if r.Withdrawal == nil {
			return shared.NewValidationError("withdrawal", "details are required")
		}
		if r.Withdrawal.MethodID == uuid.Nil {
			return shared.NewValidationError("method_id", "is required")
		}
		return shared.ValidateAmount("amount", r.Amount)
	case TypeOrder:
		if r.Order == nil {
			return shared.NewValidationError("order", "details are required")
		}
		if r.Order.ServiceID == uuid.Nil {
			return shared.NewValidationError("service_id", "is required")
		}
		return shared.ValidateAmount("price", r.Amount)
	case TypeKyc:
		if r.Kyc == nil {
			return shared.NewValidationError("kyc", "details are required")
		}
		if strings.TrimSpace(r.Kyc.DocumentType) == "" {
			return shared.NewValidationError("document_type", "is required")
		}
		if strings.TrimSpace(r.Kyc.DocumentFrontURL) == "" {
			return shared.NewValidationError("document_front_url", "is required")
		}
		return nil
	}
	return shared.NewValidationError("type", "is unknown")
}

// IsTerminal reports whether the request has been reviewed.
func (r *Request) IsTerminal() bool {
	return r.Status != StatusPending
}

// Approve moves a pending request to approved. resultPayload is kept for orders.
func (r *Request) Approve(resultPayload string, now time.Time) error {
	if r.IsTerminal() {
		return ErrAlreadyProcessed{RequestID: r.ID, Status: r.Status}
	}
	r.Status = StatusApproved
	if resultPayload != "" {
		r.ResultPayload = &resultPayload
	}
	r.ReviewedAt = &now
	return nil
}

// Reject moves a pending request to rejected.
func (r *Request) Reject(reason string, now time.Time) error {
	if r.IsTerminal() {
		return ErrAlreadyProcessed{RequestID: r.ID, Status: r.Status}
	}
	r.Status = StatusRejected
	if reason = strings.TrimSpace(reason); reason != "" {
		r.RejectionReason = &reason
	}
	r.ReviewedAt = &now
	return nil
}

// MarshalDetails encodes the variant payload for storage.
func (r *Request) MarshalDetails() ([]byte, error) {
	switch r.Type {
	case TypeDeposit:
		return json.Marshal(r.Deposit)
	case TypeWithdrawal:
		return json.Marshal(r.Withdrawal)
	case TypeOrder:
		return json.Marshal(r.Order)
	case TypeKyc:
		return json.Marshal(r.Kyc)
	}
	return nil, fmt.Errorf("unknown request type %q", r.Type)
}

// UnmarshalDetails decodes a stored variant payload according to r.Type.
func (r *Request) UnmarshalDetails(raw []byte) error {
	switch r.Type {
	case TypeDeposit:
		r.Deposit = &DepositDetails{}
		return json.Unmarshal(raw, r.Deposit)
	case TypeWithdrawal:
		r.Withdrawal = &WithdrawalDetails{}
		return json.Unmarshal(raw, r.Withdrawal)
	case TypeOrder:
		r.Order = &OrderDetails{}
		return json.Unmarshal(raw, r.Order)
	case TypeKyc:
		r.Kyc = &KycDetails{}
		return json.Unmarshal(raw, r.Kyc)
	}
	return fmt.Errorf("unknown request type %q", r.Type)
}
