package account

import (
	"errors"
	"regexp"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// pinHashCost is a variable so tests can lower it.
var pinHashCost = bcrypt.DefaultCost

// HashPin validates a 4-digit PIN and returns its bcrypt hash.
func HashPin(pin string) (string, error) {
	if !pinPattern.MatchString(pin) {
		return "", shared.NewValidationError("pin", "must be exactly 4 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), pinHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// HasPin reports whether a PIN has been set.
func (a *Account) HasPin() bool {
	return a.PinHash != nil && *a.PinHash != ""
}

// VerifyPin compares pin against the stored hash.
func (a *Account) VerifyPin(pin string) error {
	if !a.HasPin() {
		return ErrPinNotConfigured
	}
	if !pinPattern.MatchString(pin) {
		return ErrInvalidPin
	}
	err := bcrypt.CompareHashAndPassword([]byte(*a.PinHash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPin
	}
	return err
}
