package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DepositMethod is a payment channel users can fund their balance through.
type DepositMethod struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Country      string    `json:"country"`
	Instructions string    `json:"instructions"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Variant is one selectable price point of a marketplace service.
type Variant struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Service is a marketplace product fulfilled manually by an admin.
type Service struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Variants   []Variant        `json:"variants,omitempty"`
	InputLabel string           `json:"input_label,omitempty"`
	Active     bool             `json:"active"`
	CreatedAt  time.Time        `json:"created_at"`
}

// VisibleIn reports whether an entry registered for entryCountry is offered in country.
func VisibleIn(entryCountry, country string) bool {
	return entryCountry == shared.GlobalCountry || strings.EqualFold(entryCountry, country)
}

// Repository manages catalog configuration. List methods return active entries only.
type Repository interface {
	ListDepositMethods(ctx context.Context, country string) ([]*DepositMethod, error)
	GetDepositMethod(ctx context.Context, id uuid.UUID) (*DepositMethod, error)
	CreateDepositMethod(ctx context.Context, m *DepositMethod) error

	ListWithdrawalMethods(ctx context.Context, country string) ([]*WithdrawalMethod, error)
	GetWithdrawalMethod(ctx context.Context, id uuid.UUID) (*WithdrawalMethod, error)
	CreateWithdrawalMethod(ctx context.Context, m *WithdrawalMethod) error

	ListServices(ctx context.Context) ([]*Service, error)
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	CreateService(ctx context.Context, s *Service) error

	WithTx(tx pgx.Tx) Repository
}

// ErrCatalogEntryNotFound indicates a missing or inactive method or service
type ErrCatalogEntryNotFound struct {
	Kind string
	ID   uuid.UUID
}

func (e ErrCatalogEntryNotFound) Error() string {
	return e.Kind + " not found: " + e.ID.String()
}

func (e ErrCatalogEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrCatalogEntryNotFound)
	if !ok {
		return false
	}
	return (t.Kind == "" || t.Kind == e.Kind) && (t.ID == uuid.Nil || t.ID == e.ID)
}
