package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/activity"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// maxCodeAttempts bounds custom code regeneration on collision.
const maxCodeAttempts = 5

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo     account.Repository
	transactionRepo transaction.Repository
	activityRepo    activity.Repository
	pinGuard        *account.PinGuard
	generateCode    func() (string, error)
	logger          *slog.Logger
}

// NewAccountService creates a new account service. pinGuard counts wrong current PINs
// on PIN changes against the same limit the ledger uses.
func NewAccountService(
	accountRepo account.Repository,
	transactionRepo transaction.Repository,
	activityRepo activity.Repository,
	pinGuard *account.PinGuard,
	logger *slog.Logger,
) AccountService {
	return &AccountServiceImpl{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		activityRepo:    activityRepo,
		pinGuard:        pinGuard,
		generateCode:    account.GenerateCustomCode,
		logger:          logger,
	}
}

func (s *AccountServiceImpl) Register(ctx context.Context, principalID uuid.UUID, reg account.Registration) (*account.Account, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate account code: %w", err)
		}

		acc, err := account.NewAccount(principalID, reg, code)
		if err != nil {
			return nil, err
		}

		err = s.accountRepo.Create(ctx, acc)
		if err == nil {
			s.logger.Info("Account registered", "account_id", acc.ID, "custom_code", acc.CustomCode)
			return acc, nil
		}
		if errors.Is(err, account.ErrDuplicateAccount{Field: "custom_code"}) {
			s.logger.Warn("Custom code collision, regenerating", "attempt", attempt)
			continue
		}
		return nil, classify("register account", err)
	}
	return nil, shared.StoreError{
		Op:  "register account",
		Err: fmt.Errorf("no free custom code after %d attempts", maxCodeAttempts),
	}
}

func (s *AccountServiceImpl) GetProfile(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify("get account", err)
	}
	return acc, nil
}

// Resolve returns ErrAccountNotFound when nothing matches.
func (s *AccountServiceImpl) Resolve(ctx context.Context, query string) (*account.Account, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.NewValidationError("q", "is required")
	}
	acc, err := s.accountRepo.Resolve(ctx, query)
	if err != nil {
		return nil, classify("resolve account", err)
	}
	if acc == nil {
		return nil, account.ErrAccountNotFound{}
	}
	return acc, nil
}

// SetPin sets the first PIN or changes it after checking currentPin. The write only lands
// if the hash is still the one currentPin was checked against.
func (s *AccountServiceImpl) SetPin(ctx context.Context, id uuid.UUID, currentPin, newPin string) error {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return classify("set pin", err)
	}

	if acc.HasPin() {
		if err := s.pinGuard.Verify(ctx, acc, currentPin); err != nil {
			s.logger.Warn("PIN change refused", "account_id", id, "error", err)
			return classify("set pin", err)
		}
	}

	hash, err := account.HashPin(newPin)
	if err != nil {
		return classify("set pin", err)
	}
	err = s.accountRepo.SetPinHash(ctx, id, acc.PinHash, hash)
	if errors.Is(err, account.ErrPinChanged) {
		s.logger.Warn("PIN changed concurrently, refusing stale change", "account_id", id)
		return account.ErrInvalidPin
	}
	if err != nil {
		return classify("set pin", err)
	}

	s.logger.Info("Account PIN updated", "account_id", id, "first_time", !acc.HasPin())
	return nil
}

func (s *AccountServiceImpl) ListTransactions(ctx context.Context, id uuid.UUID, limit, offset int) ([]*transaction.Record, int64, error) {
	limit, offset = shared.NormalizePage(limit, offset)
	records, err := s.transactionRepo.ListByAccount(ctx, id, limit, offset)
	if err != nil {
		return nil, 0, classify("list transactions", err)
	}
	total, err := s.transactionRepo.CountByAccount(ctx, id)
	if err != nil {
		return nil, 0, classify("count transactions", err)
	}
	return records, total, nil
}

func (s *AccountServiceImpl) ListActivity(ctx context.Context, id uuid.UUID, limit, offset int) ([]*activity.Entry, int64, error) {
	limit, offset = shared.NormalizePage(limit, offset)
	entries, err := s.activityRepo.ListByAccount(ctx, id.String(), limit, offset)
	if err != nil {
		return nil, 0, classify("list activity", err)
	}
	total, err := s.activityRepo.CountByAccount(ctx, id.String())
	if err != nil {
		return nil, 0, classify("count activity", err)
	}
	return entries, total, nil
}

func (s *AccountServiceImpl) Purge(ctx context.Context, id uuid.UUID) error {
	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return classify("purge account", err)
	}
	s.logger.Info("Account purged", "account_id", id)
	return nil
}
