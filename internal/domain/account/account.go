package account

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger errors raised on account balances and PINs
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPin        = errors.New("invalid pin")
	ErrPinNotConfigured  = errors.New("pin not configured")
	ErrPinChanged        = errors.New("pin changed concurrently")
)

// Role grants access to back-office surfaces
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAgent || r == RoleAdmin
}

// Account is a user's balance-holding entity.
type Account struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Email       string          `json:"email"`
	Phone       *string         `json:"phone,omitempty"`
	DisplayName string          `json:"display_name"`
	CustomCode  string          `json:"custom_code"`
	Balance     decimal.Decimal `json:"balance"`
	Role        Role            `json:"role"`
	Verified    bool            `json:"verified"`
	PinHash     *string         `json:"-"`
	Country     string          `json:"country"`
	Language    string          `json:"language"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Registration carries the profile captured at sign-up.
type Registration struct {
	Username    string
	Email       string
	Phone       string
	DisplayName string
	Country     string
	Language    string
}

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,32}$`)
	countryPattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// NormalizeUsername lower-cases a username and strips a leading "@".
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

// NewAccount validates a registration and returns an account with a zero balance.
func NewAccount(id uuid.UUID, reg Registration, customCode string) (*Account, error) {
	if id == uuid.Nil {
		return nil, shared.NewValidationError("id", "is required")
	}
	username := NormalizeUsername(reg.Username)
	if !usernamePattern.MatchString(username) {
		return nil, shared.NewValidationError("username", "must be 3-32 characters of a-z, 0-9, '_' or '.'")
	}
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewValidationError("email", "is not a valid address")
	}
	country := strings.ToUpper(strings.TrimSpace(reg.Country))
	if !countryPattern.MatchString(country) || country == shared.GlobalCountry {
		return nil, shared.NewValidationError("country", "must be an ISO 3166-1 alpha-2 code")
	}
	if !IsCustomCode(customCode) {
		return nil, shared.NewValidationError("custom_code", "is malformed")
	}

	var phone *string
	if p := strings.TrimSpace(reg.Phone); p != "" {
		if !phonePattern.MatchString(p) {
			return nil, shared.NewValidationError("phone", "must contain 7-15 digits")
		}
		phone = &p
	}

	displayName := strings.TrimSpace(reg.DisplayName)
	if displayName == "" {
		displayName = username
	}

	language := strings.ToLower(reg.Language)
	if language != "ar" {
		language = "en"
	}

	now := time.Now().UTC()
	return &Account{
		ID:          id,
		Username:    username,
		Email:       email,
		Phone:       phone,
		DisplayName: displayName,
		CustomCode:  customCode,
		Balance:     decimal.Zero,
		Role:        RoleUser,
		Verified:    false,
		Country:     country,
		Language:    language,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanAfford reports whether the balance covers amount.
func (a *Account) CanAfford(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// IsStaff reports whether the account may see the review queue.
func (a *Account) IsStaff() bool {
	return a.Role == RoleAgent || a.Role == RoleAdmin
}
