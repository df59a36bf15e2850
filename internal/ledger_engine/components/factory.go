package components

import (
	"log/slog"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/flash-wallet-ledger/internal/ledger_engine/service"
)

// Repositories groups the stores the ledger engine writes to.
type Repositories struct {
	Accounts      account.Repository
	Transactions  transaction.Repository
	Requests      request.Repository
	Notifications notification.Repository
	Outbox        outbox.Repository
	Catalog       catalog.Repository
}

// CreateLedgerServices wires the ledger and review services. pinGuard counts wrong PINs
// across requests; when observer is non-nil both services are wrapped with operation metrics.
func CreateLedgerServices(
	txRunner service.TxRunner,
	repos Repositories,
	pinGuard *account.PinGuard,
	observer service.OperationObserver,
	logger *slog.Logger,
) (service.LedgerService, service.ReviewService) {
	engineLogger := logger.With("component", "ledger_engine")

	funds := NewFundsMover(repos.Accounts, repos.Transactions, engineLogger)
	pinGate := NewPinGate(pinGuard, engineLogger)
	events := NewEventRecorder(repos.Notifications, repos.Outbox, engineLogger)

	ledgerService := service.NewLedgerService(
		txRunner,
		repos.Accounts,
		repos.Requests,
		repos.Catalog,
		funds,
		pinGate,
		events,
		engineLogger,
	)
	reviewService := service.NewReviewService(
		txRunner,
		repos.Accounts,
		repos.Requests,
		funds,
		events,
		engineLogger,
	)

	if observer == nil {
		return ledgerService, reviewService
	}
	logger.Info("Ledger engine metrics enabled")
	return service.NewInstrumentedLedgerService(ledgerService, observer),
		service.NewInstrumentedReviewService(reviewService, observer)
}
