// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a transaction with WithTx so the ledger engine can
// compose them into one atomic unit.
package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, username, email, phone, display_name, custom_code, balance, role, verified, pin_hash, country, language, created_at, updated_at`

// accountConstraintFields maps unique indexes to the registration field they guard.
var accountConstraintFields = map[string]string{
	"accounts_username_key":    "username",
	"accounts_email_key":       "email",
	"accounts_phone_key":       "phone",
	"accounts_custom_code_key": "custom_code",
}

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a new account. Unique index violations are reported as
// account.ErrDuplicateAccount naming the offending field.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Username,
		acc.Email,
		acc.Phone,
		acc.DisplayName,
		acc.CustomCode,
		acc.Balance,
		acc.Role,
		acc.Verified,
		acc.PinHash,
		acc.Country,
		acc.Language,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := persistence.UniqueViolation(err); ok {
			field := accountConstraintFields[constraint]
			if field == "" {
				field = "id"
			}
			return account.ErrDuplicateAccount{Field: field}
		}
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// Resolve looks up an account by exact custom code or case-insensitive username.
func (r *AccountRepository) Resolve(ctx context.Context, q string) (*account.Account, error) {
	code, username := account.ParseLookup(q)

	var row pgx.Row
	switch {
	case code != "":
		row = r.querier.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE custom_code = $1`, code)
	case username != "":
		row = r.querier.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(username) = $1`, username)
	default:
		return nil, nil
	}

	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to resolve account", "query", q, "error", err)
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	return acc, nil
}

// LockForUpdate locks the given accounts one by one in ascending id order so concurrent
// transfers between the same pair cannot deadlock.
func (r *AccountRepository) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	ordered := make([]uuid.UUID, len(ids))
	copy(ordered, ids)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	locked := make(map[uuid.UUID]*account.Account, len(ordered))
	for _, id := range ordered {
		if _, seen := locked[id]; seen {
			continue
		}
		acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, account.ErrAccountNotFound{AccountID: id}
			}
			r.logger.Error("Failed to lock account", "id", id.String(), "error", err)
			return nil, fmt.Errorf("failed to lock account: %w", err)
		}
		locked[id] = acc
	}

	return locked, nil
}

// Debit subtracts amount in a single conditional statement; the balance never goes
// below zero.
func (r *AccountRepository) Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.querier.QueryRow(ctx, query, id, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to debit account", "id", id.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to debit account: %w", err)
	}

	var exists bool
	if err := r.querier.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return decimal.Zero, fmt.Errorf("failed to check account existence: %w", err)
	}
	if !exists {
		return decimal.Zero, account.ErrAccountNotFound{AccountID: id}
	}
	return decimal.Zero, account.ErrInsufficientFunds
}

func (r *AccountRepository) Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`

	var balance decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, id, amount).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to credit account", "id", id.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to credit account: %w", err)
	}
	return balance, nil
}

func (r *AccountRepository) SetPinHash(ctx context.Context, id uuid.UUID, previous *string, pinHash string) error {
	query := `
		UPDATE accounts SET pin_hash = $3, updated_at = NOW()
		WHERE id = $1 AND pin_hash IS NOT DISTINCT FROM $2
	`
	err := r.execOnAccount(ctx, "set pin", query, id, previous, pinHash)
	if errors.Is(err, account.ErrAccountNotFound{}) {
		// the caller read the row moments ago, so a miss means the hash moved
		return account.ErrPinChanged
	}
	return err
}

func (r *AccountRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.execOnAccount(ctx, "mark verified", `UPDATE accounts SET verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
}

// Delete purges an account; dependent rows go with it through ON DELETE CASCADE.
// pin_attempts has no foreign key and is cleared in the same statement.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		WITH attempts AS (DELETE FROM pin_attempts WHERE account_id = $1)
		DELETE FROM accounts WHERE id = $1
	`
	return r.execOnAccount(ctx, "delete account", query, id)
}

func (r *AccountRepository) execOnAccount(ctx context.Context, op, query string, id uuid.UUID, args ...interface{}) error {
	tag, err := r.querier.Exec(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		r.logger.Error("Failed to "+op, "id", id.String(), "error", err)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}
	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.Phone,
		&acc.DisplayName,
		&acc.CustomCode,
		&acc.Balance,
		&acc.Role,
		&acc.Verified,
		&acc.PinHash,
		&acc.Country,
		&acc.Language,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
