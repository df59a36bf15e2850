package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

var catalogCountryPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// CatalogServiceImpl implements CatalogService
type CatalogServiceImpl struct {
	catalogRepo catalog.Repository
	accountRepo account.Repository
}

func NewCatalogService(catalogRepo catalog.Repository, accountRepo account.Repository) CatalogService {
	return &CatalogServiceImpl{catalogRepo: catalogRepo, accountRepo: accountRepo}
}

// DepositMethods lists the active methods of the account's country plus global ones.
func (s *CatalogServiceImpl) DepositMethods(ctx context.Context, accountID uuid.UUID) ([]*catalog.DepositMethod, error) {
	country, err := s.countryOf(ctx, accountID)
	if err != nil {
		return nil, err
	}
	methods, err := s.catalogRepo.ListDepositMethods(ctx, country)
	if err != nil {
		return nil, classify("list deposit methods", err)
	}
	return methods, nil
}

func (s *CatalogServiceImpl) WithdrawalMethods(ctx context.Context, accountID uuid.UUID) ([]*catalog.WithdrawalMethod, error) {
	country, err := s.countryOf(ctx, accountID)
	if err != nil {
		return nil, err
	}
	methods, err := s.catalogRepo.ListWithdrawalMethods(ctx, country)
	if err != nil {
		return nil, classify("list withdrawal methods", err)
	}
	return methods, nil
}

func (s *CatalogServiceImpl) Services(ctx context.Context) ([]*catalog.Service, error) {
	services, err := s.catalogRepo.ListServices(ctx)
	if err != nil {
		return nil, classify("list services", err)
	}
	return services, nil
}

func (s *CatalogServiceImpl) CreateDepositMethod(ctx context.Context, m *catalog.DepositMethod) (*catalog.DepositMethod, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	country, err := normalizeCountry(m.Country)
	if err != nil {
		return nil, err
	}
	m.ID = uuid.New()
	m.Country = country
	m.Active = true
	m.CreatedAt = time.Now().UTC()

	if err := s.catalogRepo.CreateDepositMethod(ctx, m); err != nil {
		return nil, classify("create deposit method", err)
	}
	return m, nil
}

func (s *CatalogServiceImpl) CreateWithdrawalMethod(ctx context.Context, m *catalog.WithdrawalMethod) (*catalog.WithdrawalMethod, error) {
	m.Name = strings.TrimSpace(m.Name)
	country, err := normalizeCountry(m.Country)
	if err != nil {
		return nil, err
	}
	m.Country = country
	m.Currency = strings.ToUpper(strings.TrimSpace(m.Currency))
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.ID = uuid.New()
	m.Active = true
	m.CreatedAt = time.Now().UTC()

	if err := s.catalogRepo.CreateWithdrawalMethod(ctx, m); err != nil {
		return nil, classify("create withdrawal method", err)
	}
	return m, nil
}

func (s *CatalogServiceImpl) CreateService(ctx context.Context, svc *catalog.Service) (*catalog.Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	svc.ID = uuid.New()
	svc.Active = true
	svc.CreatedAt = time.Now().UTC()

	if err := s.catalogRepo.CreateService(ctx, svc); err != nil {
		return nil, classify("create service", err)
	}
	return svc, nil
}

func (s *CatalogServiceImpl) countryOf(ctx context.Context, accountID uuid.UUID) (string, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return "", classify("get account", err)
	}
	return acc.Country, nil
}

// normalizeCountry accepts an ISO alpha-2 code or the global marker.
func normalizeCountry(country string) (string, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if !catalogCountryPattern.MatchString(country) {
		return "", shared.NewValidationError("country", "must be an ISO 3166-1 alpha-2 code or "+shared.GlobalCountry)
	}
	return country, nil
}
