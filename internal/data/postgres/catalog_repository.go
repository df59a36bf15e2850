package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CatalogRepository implements catalog.Repository for PostgreSQL
type CatalogRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewCatalogRepository(logger *slog.Logger, db *persistence.PostgresDB) catalog.Repository {
	return &CatalogRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *CatalogRepository) WithTx(tx pgx.Tx) catalog.Repository {
	return &CatalogRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// ListDepositMethods returns active methods offered in country, including global ones.
func (r *CatalogRepository) ListDepositMethods(ctx context.Context, country string) ([]*catalog.DepositMethod, error) {
	query := `
		SELECT id, name, country, instructions, active, created_at
		FROM deposit_methods
		WHERE active AND (country = $1 OR country = $2)
		ORDER BY name
	`

	rows, err := r.querier.Query(ctx, query, strings.ToUpper(country), shared.GlobalCountry)
	if err != nil {
		r.logger.Error("Failed to list deposit methods", "country", country, "error", err)
		return nil, fmt.Errorf("failed to list deposit methods: %w", err)
	}
	defer rows.Close()

	methods := make([]*catalog.DepositMethod, 0)
	for rows.Next() {
		var m catalog.DepositMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Country, &m.Instructions, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit method: %w", err)
		}
		methods = append(methods, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deposit methods: %w", err)
	}
	return methods, nil
}

func (r *CatalogRepository) GetDepositMethod(ctx context.Context, id uuid.UUID) (*catalog.DepositMethod, error) {
	query := `
		SELECT id, name, country, instructions, active, created_at
		FROM deposit_methods
		WHERE id = $1 AND active
	`

	var m catalog.DepositMethod
	err := r.querier.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.Country, &m.Instructions, &m.Active, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCatalogEntryNotFound{Kind: "deposit method", ID: id}
		}
		r.logger.Error("Failed to get deposit method", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get deposit method: %w", err)
	}
	return &m, nil
}

func (r *CatalogRepository) CreateDepositMethod(ctx context.Context, m *catalog.DepositMethod) error {
	query := `
		INSERT INTO deposit_methods (id, name, country, instructions, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.querier.Exec(ctx, query, m.ID, m.Name, m.Country, m.Instructions, m.Active, m.CreatedAt); err != nil {
		r.logger.Error("Failed to create deposit method", "name", m.Name, "error", err)
		return fmt.Errorf("failed to create deposit method: %w", err)
	}
	return nil
}

const withdrawalMethodColumns = `id, name, country, currency, exchange_rate, fee_type, fee_value, required_fields, active, created_at`

func (r *CatalogRepository) ListWithdrawalMethods(ctx context.Context, country string) ([]*catalog.WithdrawalMethod, error) {
	query := `
		SELECT ` + withdrawalMethodColumns + `
		FROM withdrawal_methods
		WHERE active AND (country = $1 OR country = $2)
		ORDER BY name
	`

	rows, err := r.querier.Query(ctx, query, strings.ToUpper(country), shared.GlobalCountry)
	if err != nil {
		r.logger.Error("Failed to list withdrawal methods", "country", country, "error", err)
		return nil, fmt.Errorf("failed to list withdrawal methods: %w", err)
	}
	defer rows.Close()

	methods := make([]*catalog.WithdrawalMethod, 0)
	for rows.Next() {
		m, err := scanWithdrawalMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal method: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal methods: %w", err)
	}
	return methods, nil
}

func (r *CatalogRepository) GetWithdrawalMethod(ctx context.Context, id uuid.UUID) (*catalog.WithdrawalMethod, error) {
	query := `SELECT ` + withdrawalMethodColumns + ` FROM withdrawal_methods WHERE id = $1 AND active`

	m, err := scanWithdrawalMethod(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCatalogEntryNotFound{Kind: "withdrawal method", ID: id}
		}
		r.logger.Error("Failed to get withdrawal method", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get withdrawal method: %w", err)
	}
	return m, nil
}

func (r *CatalogRepository) CreateWithdrawalMethod(ctx context.Context, m *catalog.WithdrawalMethod) error {
	query := `
		INSERT INTO withdrawal_methods (` + withdrawalMethodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	fields := m.RequiredFields
	if fields == nil {
		fields = []string{}
	}
	_, err := r.querier.Exec(ctx, query,
		m.ID, m.Name, m.Country, m.Currency, m.ExchangeRate, m.FeeType, m.FeeValue, fields, m.Active, m.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create withdrawal method", "name", m.Name, "error", err)
		return fmt.Errorf("failed to create withdrawal method: %w", err)
	}
	return nil
}

func scanWithdrawalMethod(row pgx.Row) (*catalog.WithdrawalMethod, error) {
	var m catalog.WithdrawalMethod
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Country,
		&m.Currency,
		&m.ExchangeRate,
		&m.FeeType,
		&m.FeeValue,
		&m.RequiredFields,
		&m.Active,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const serviceColumns = `id, name, category, price, variants, input_label, active, created_at`

// ListServices returns every active marketplace service; services are not country scoped.
func (r *CatalogRepository) ListServices(ctx context.Context) ([]*catalog.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM marketplace_services WHERE active ORDER BY category, name`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list services", "error", err)
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := make([]*catalog.Service, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}
	return services, nil
}

func (r *CatalogRepository) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM marketplace_services WHERE id = $1 AND active`

	s, err := scanService(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCatalogEntryNotFound{Kind: "service", ID: id}
		}
		r.logger.Error("Failed to get service", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

func (r *CatalogRepository) CreateService(ctx context.Context, s *catalog.Service) error {
	variants := s.Variants
	if variants == nil {
		variants = []catalog.Variant{}
	}
	encoded, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("failed to encode service variants: %w", err)
	}

	var inputLabel *string
	if s.InputLabel != "" {
		inputLabel = &s.InputLabel
	}

	query := `
		INSERT INTO marketplace_services (` + serviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.querier.Exec(ctx, query, s.ID, s.Name, s.Category, s.Price, encoded, inputLabel, s.Active, s.CreatedAt); err != nil {
		r.logger.Error("Failed to create service", "name", s.Name, "error", err)
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func scanService(row pgx.Row) (*catalog.Service, error) {
	var (
		s          catalog.Service
		variants   []byte
		inputLabel *string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &variants, &inputLabel, &s.Active, &s.CreatedAt); err != nil {
		return nil, err
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &s.Variants); err != nil {
			return nil, fmt.Errorf("failed to decode service variants: %w", err)
		}
	}
	if inputLabel != nil {
		s.InputLabel = *inputLabel
	}
	return &s, nil
}
