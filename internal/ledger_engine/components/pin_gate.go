package components

import (
	"context"
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/ledger_engine/service"
)

// PinGateImpl implements the PinGate interface
type PinGateImpl struct {
	guard  *account.PinGuard
	logger *slog.Logger
}

// NewPinGate returns a gate that checks PINs through guard. A nil guard compares hashes
// without counting failures.
func NewPinGate(guard *account.PinGuard, logger *slog.Logger) service.PinGate {
	return &PinGateImpl{guard: guard, logger: logger}
}

// Authorize checks pin against acc's stored hash. A nil account is reported as an invalid
// PIN so callers cannot tell unknown ids apart from wrong PINs.
func (g *PinGateImpl) Authorize(ctx context.Context, acc *account.Account, pin string) error {
	if acc == nil {
		return account.ErrInvalidPin
	}
	err := g.guard.Verify(ctx, acc, pin)
	if err != nil {
		g.logger.Warn("PIN authorization failed", "account_id", acc.ID.String(), "correlation_id", shared.CorrelationID(ctx), "error", err)
	}
	return err
}
