package service

import (
	"context"
	"errors"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/shared"
)

var knownErrors = []error{
	shared.ErrValidationFailed,
	shared.ErrStoreUnavailable,
	account.ErrAccountNotFound{},
	account.ErrDuplicateAccount{},
	account.ErrInvalidPin,
	account.ErrPinNotConfigured,
	account.ErrPinLocked{},
	notification.ErrNotificationNotFound{},
	catalog.ErrCatalogEntryNotFound{},
	context.Canceled,
	context.DeadlineExceeded,
}

// classify passes domain errors through and reports anything else as a StoreError.
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
