package handler

import (
	"time"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// RegisterAccountRequest is the profile captured at sign-up
type RegisterAccountRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	DisplayName string `json:"display_name"`
	Country     string `json:"country" binding:"required"`
	Language    string `json:"language"`
}

// AccountResponse is the owner's view of an account
type AccountResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	DisplayName string  `json:"display_name"`
	CustomCode  string  `json:"custom_code"`
	Balance     string  `json:"balance"`
	Currency    string  `json:"currency"`
	Role        string  `json:"role"`
	Verified    bool    `json:"verified"`
	HasPin      bool    `json:"has_pin"`
	Country     string  `json:"country"`
	Language    string  `json:"language"`
	CreatedAt   string  `json:"created_at"`
}

// PublicAccountResponse is what other users see when resolving a recipient
type PublicAccountResponse struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	CustomCode  string `json:"custom_code"`
}

type SetPinRequest struct {
	CurrentPin string `json:"current_pin"`
	NewPin     string `json:"new_pin" binding:"required"`
}

type TransferRequest struct {
	Recipient string          `json:"recipient" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Pin       string          `json:"pin" binding:"required"`
}

type TransferResponse struct {
	Transaction *transaction.Record   `json:"transaction"`
	Balance     string                `json:"balance"`
	Recipient   PublicAccountResponse `json:"recipient"`
}

type WithdrawalRequest struct {
	MethodID     string            `json:"method_id" binding:"required,uuid"`
	Amount       decimal.Decimal   `json:"amount"`
	Pin          string            `json:"pin" binding:"required"`
	PayoutFields map[string]string `json:"payout_fields"`
}

type DepositRequest struct {
	MethodID string          `json:"method_id" binding:"required,uuid"`
	Amount   decimal.Decimal `json:"amount"`
	ProofURL string          `json:"proof_url" binding:"required"`
}

type OrderRequest struct {
	ServiceID    string `json:"service_id" binding:"required,uuid"`
	VariantIndex *int   `json:"variant_index"`
	UserInput    string `json:"user_input"`
	Pin          string `json:"pin" binding:"required"`
}

type VerificationRequest struct {
	DocumentType     string `json:"document_type" binding:"required"`
	DocumentFrontURL string `json:"document_front_url" binding:"required"`
	DocumentBackURL  string `json:"document_back_url"`
	SelfieURL        string `json:"selfie_url"`
}

// DecisionRequest carries an optional rejection reason or the delivery payload of an order
type DecisionRequest struct {
	Reason        string `json:"reason"`
	ResultPayload string `json:"result_payload"`
}

type CreateDepositMethodRequest struct {
	Name         string `json:"name" binding:"required"`
	Country      string `json:"country" binding:"required"`
	Instructions string `json:"instructions"`
}

type CreateWithdrawalMethodRequest struct {
	Name           string          `json:"name" binding:"required"`
	Country        string          `json:"country" binding:"required"`
	Currency       string          `json:"currency" binding:"required"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	FeeType        string          `json:"fee_type" binding:"required"`
	FeeValue       decimal.Decimal `json:"fee_value"`
	RequiredFields []string        `json:"required_fields"`
}

type CreateServiceRequest struct {
	Name       string            `json:"name" binding:"required"`
	Category   string            `json:"category"`
	Price      *decimal.Decimal  `json:"price"`
	Variants   []catalog.Variant `json:"variants"`
	InputLabel string            `json:"input_label"`
}

// PageQuery binds limit/offset query parameters
type PageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// Normalize applies the default and maximum page size.
func (q PageQuery) Normalize() (int, int) {
	return shared.NormalizePage(q.Limit, q.Offset)
}

func mapAccountToResponse(acc *account.Account, currency string) AccountResponse {
	return AccountResponse{
		ID:          acc.ID.String(),
		Username:    acc.Username,
		Email:       acc.Email,
		Phone:       acc.Phone,
		DisplayName: acc.DisplayName,
		CustomCode:  acc.CustomCode,
		Balance:     acc.Balance.StringFixed(shared.MoneyScale),
		Currency:    currency,
		Role:        string(acc.Role),
		Verified:    acc.Verified,
		HasPin:      acc.HasPin(),
		Country:     acc.Country,
		Language:    acc.Language,
		CreatedAt:   acc.CreatedAt.Format(time.RFC3339),
	}
}

func mapPublicAccount(acc *account.Account) PublicAccountResponse {
	return PublicAccountResponse{
		Username:    acc.Username,
		DisplayName: acc.DisplayName,
		CustomCode:  acc.CustomCode,
	}
}
