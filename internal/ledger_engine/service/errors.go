package service

import (
	"errors"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
)

// ErrRecipientNotFound is returned when a transfer target does not resolve to an account.
var ErrRecipientNotFound = errors.New("recipient not found")

var knownErrors = []error{
	shared.ErrValidationFailed,
	shared.ErrStoreUnavailable,
	account.ErrInsufficientFunds,
	account.ErrInvalidPin,
	account.ErrPinNotConfigured,
	account.ErrPinLocked{},
	account.ErrAccountNotFound{},
	account.ErrDuplicateAccount{},
	ErrRecipientNotFound,
	request.ErrAlreadyProcessed{},
	request.ErrRequestNotFound{},
	catalog.ErrCatalogEntryNotFound{},
}

// classify returns ledger errors unchanged and reports anything else as a store failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return shared.StoreError{Op: op, Err: err}
}
