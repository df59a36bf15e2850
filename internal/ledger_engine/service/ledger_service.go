package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/catalog"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LedgerServiceImpl struct {
	txRunner    TxRunner
	accountRepo account.Repository
	requestRepo request.Repository
	catalogRepo catalog.Repository
	funds       FundsMover
	pinGate     PinGate
	events      EventRecorder
	logger      *slog.Logger
}

func NewLedgerService(
	txRunner TxRunner,
	accountRepo account.Repository,
	requestRepo request.Repository,
	catalogRepo catalog.Repository,
	funds FundsMover,
	pinGate PinGate,
	events EventRecorder,
	logger *slog.Logger,
) LedgerService {
	return &LedgerServiceImpl{
		txRunner:    txRunner,
		accountRepo: accountRepo,
		requestRepo: requestRepo,
		catalogRepo: catalogRepo,
		funds:       funds,
		pinGate:     pinGate,
		events:      events,
		logger:      logger,
	}
}

// Transfer moves funds between two accounts after verifying the sender's PIN.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	logger := requestLogger(ctx, s.logger).With("account_id", cmd.SenderID.String())

	if err := shared.ValidateAmount("amount", cmd.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.RecipientCode) == "" {
		return nil, shared.NewValidationError("recipient", "is required")
	}

	var result *TransferResult
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		accounts := s.accountRepo.WithTx(tx)

		target, err := accounts.Resolve(ctx, cmd.RecipientCode)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrRecipientNotFound
		}
		if target.ID == cmd.SenderID {
			return shared.NewValidationError("recipient", "cannot be your own account")
		}

		locked, err := accounts.LockForUpdate(ctx, cmd.SenderID, target.ID)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{AccountID: cmd.SenderID}) {
				return account.ErrInvalidPin
			}
			if errors.Is(err, account.ErrAccountNotFound{}) {
				return ErrRecipientNotFound
			}
			return err
		}
		sender, recipient := locked[cmd.SenderID], locked[target.ID]

		if err := s.pinGate.Authorize(ctx, sender, cmd.Pin); err != nil {
			return err
		}

		sent := transaction.NewRecord(sender.ID, transaction.KindSend, cmd.Amount, transaction.StatusCompleted, recipient.CustomCode, nil)
		balance, err := s.funds.Debit(ctx, tx, sent)
		if err != nil {
			return err
		}
		received := transaction.NewRecord(recipient.ID, transaction.KindReceive, cmd.Amount, transaction.StatusCompleted, sender.CustomCode, nil)
		if _, err := s.funds.Credit(ctx, tx, received); err != nil {
			return err
		}

		notice := notification.TransferReceived(recipient.ID, cmd.Amount, sender.Username)
		if err := s.events.Notify(ctx, tx, notice); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, tx, outbox.NewLedgerEvent(outbox.EventTransferCompleted, sender.ID, cmd.Amount,
			"Funds Sent", "You sent "+shared.FormatUSD(cmd.Amount)+" to @"+recipient.Username+".")); err != nil {
			return err
		}
		if err := s.events.Publish(ctx, tx, outbox.NewLedgerEvent(outbox.EventTransferCompleted, recipient.ID, cmd.Amount,
			notice.Title, notice.Message)); err != nil {
			return err
		}

		result = &TransferResult{Record: sent, Balance: balance, Recipient: recipient}
		return nil
	})
	if err != nil {
		logFailure(logger, "Transfer failed", err)
		return nil, classify("transfer", err)
	}

	logger.Info("Transfer completed", "recipient_id", result.Recipient.ID.String(), "amount", cmd.Amount.String())
	return result, nil
}

// RequestWithdrawal reserves funds for a payout and queues it for review. The quote is
// computed once here and stored with the request.
func (s *LedgerServiceImpl) RequestWithdrawal(ctx context.Context, cmd WithdrawalCommand) (*request.Request, error) {
	logger := requestLogger(ctx, s.logger).With("account_id", cmd.AccountID.String())

	if err := shared.ValidateAmount("amount", cmd.Amount); err != nil {
		return nil, err
	}

	var created *request.Request
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		method, err := s.catalogRepo.WithTx(tx).GetWithdrawalMethod(ctx, cmd.MethodID)
		if err != nil {
			return err
		}
		quote, err := method.Quote(cmd.Amount)
		if err != nil {
			return err
		}
		fields, err := method.ValidatePayoutFields(cmd.PayoutFields)
		if err != nil {
			return err
		}

		acc, err := s.lockOwner(ctx, tx, cmd.AccountID)
		if err != nil {
			return err
		}
		if !catalog.VisibleIn(method.Country, acc.Country) {
			return catalog.ErrCatalogEntryNotFound{Kind: "withdrawal method", ID: method.ID}
		}
		if err := s.pinGate.Authorize(ctx, acc, cmd.Pin); err != nil {
			return err
		}
		if !acc.CanAfford(cmd.Amount) {
			return account.ErrInsufficientFunds
		}

		req, err := request.NewWithdrawal(acc.ID, request.WithdrawalDetails{
			MethodID:     method.ID,
			MethodName:   method.Name,
			Quote:        quote,
			PayoutFields: fields,
		})
		if err != nil {
			return err
		}
		if err := s.requestRepo.WithTx(tx).Create(ctx, req); err != nil {
			return err
		}
		rec := transaction.NewRecord(acc.ID, transaction.KindWithdraw, req.Amount, transaction.StatusPending, method.Name, &req.ID)
		if _, err := s.funds.Debit(ctx, tx, rec); err != nil {
			return err
		}

		event := outbox.NewLedgerEvent(outbox.EventWithdrawalRequested, acc.ID, req.Amount, "Withdrawal Requested",
			"Your withdrawal of "+shared.FormatUSD(req.Amount)+" via "+method.Name+" is awaiting review.")
		event.RequestID = &req.ID
		event.AdminAlert = withdrawalAlert(acc, req)
		if err := s.events.Publish(ctx, tx, event); err != nil {
			return err
		}

		created = req
		return nil
	})
	if err != nil {
		logFailure(logger, "Withdrawal request failed", err)
		return nil, classify("request withdrawal", err)
	}

	logger.Info("Withdrawal requested", "request_id", created.ID.String(), "amount", created.Amount.String())
	return created, nil
}

// SubmitDeposit records a user's claim to have paid and queues it for review. No balance
// changes until the deposit is approved.
func (s *LedgerServiceImpl) SubmitDeposit(ctx context.Context, cmd DepositCommand) (*request.Request, error) {
	logger := requestLogger(ctx, s.logger).With("account_id", cmd.AccountID.String())

	if err := shared.ValidateAmount("amount", cmd.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.ProofURL) == "" {
		return nil, shared.NewValidationError("proof_url", "is required")
	}

	var created *request.Request
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		method, err := s.catalogRepo.WithTx(tx).GetDepositMethod(ctx, cmd.MethodID)
		if err != nil {
			return err
		}
		acc, err := s.accountRepo.WithTx(tx).GetByID(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		if !catalog.VisibleIn(method.Country, acc.Country) {
			return catalog.ErrCatalogEntryNotFound{Kind: "deposit method", ID: method.ID}
		}

		req, err := request.NewDeposit(acc.ID, cmd.Amount, request.DepositDetails{
			MethodID:   method.ID,
			MethodName: method.Name,
			ProofURL:   strings.TrimSpace(cmd.ProofURL),
		})
		if err != nil {
			return err
		}
		if err := s.requestRepo.WithTx(tx).Create(ctx, req); err != nil {
			return err
		}

		event := outbox.NewLedgerEvent(outbox.EventDepositSubmitted, acc.ID, req.Amount, "Deposit Submitted",
			"Your deposit of "+shared.FormatUSD(req.Amount)+" via "+method.Name+" is awaiting review.")
		event.RequestID = &req.ID
		event.AdminAlert = depositAlert(acc, req)
		if err := s.events.Publish(ctx, tx, event); err != nil {
			return err
		}

		created = req
		return nil
	})
	if err != nil {
		logFailure(logger, "Deposit submission failed", err)
		return nil, classify("submit deposit", err)
	}

	logger.Info("Deposit submitted", "request_id", created.ID.String(), "amount", created.Amount.String())
	return created, nil
}

// Purchase charges the service price and opens an order for manual fulfilment.
func (s *LedgerServiceImpl) Purchase(ctx context.Context, cmd PurchaseCommand) (*request.Request, error) {
	logger := requestLogger(ctx, s.logger).With("account_id", cmd.AccountID.String())

	var created *request.Request
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		svc, err := s.catalogRepo.WithTx(tx).GetService(ctx, cmd.ServiceID)
		if err != nil {
			return err
		}
		price, variantLabel, err := svc.ResolvePrice(cmd.VariantIndex)
		if err != nil {
			return err
		}
		input := strings.TrimSpace(cmd.UserInput)
		if svc.RequiresInput() && input == "" {
			return shared.NewValidationError("user_input", svc.InputLabel+" is required")
		}

		acc, err := s.lockOwner(ctx, tx, cmd.AccountID)
		if err != nil {
			return err
		}
		if err := s.pinGate.Authorize(ctx, acc, cmd.Pin); err != nil {
			return err
		}
		if !acc.CanAfford(price) {
			return account.ErrInsufficientFunds
		}

		req, err := request.NewOrder(acc.ID, price, request.OrderDetails{
			ServiceID:    svc.ID,
			ServiceName:  svc.Name,
			Category:     svc.Category,
			VariantIndex: cmd.VariantIndex,
			VariantLabel: variantLabel,
			UserInput:    input,
		})
		if err != nil {
			return err
		}
		if err := s.requestRepo.WithTx(tx).Create(ctx, req); err != nil {
			return err
		}
		rec := transaction.NewRecord(acc.ID, transaction.KindPurchase, price, transaction.StatusPending, svc.Name, &req.ID)
		if _, err := s.funds.Debit(ctx, tx, rec); err != nil {
			return err
		}

		event := outbox.NewLedgerEvent(outbox.EventOrderPlaced, acc.ID, price, "Order Placed",
			"Your order for "+svc.Name+" ("+shared.FormatUSD(price)+") is being processed.")
		event.RequestID = &req.ID
		event.AdminAlert = orderAlert(acc, req)
		if err := s.events.Publish(ctx, tx, event); err != nil {
			return err
		}

		created = req
		return nil
	})
	if err != nil {
		logFailure(logger, "Purchase failed", err)
		return nil, classify("purchase", err)
	}

	logger.Info("Order placed", "request_id", created.ID.String(), "amount", created.Amount.String())
	return created, nil
}

// SubmitKyc opens an identity verification request. An account has at most one pending
// verification and cannot re-verify.
func (s *LedgerServiceImpl) SubmitKyc(ctx context.Context, cmd KycCommand) (*request.Request, error) {
	logger := requestLogger(ctx, s.logger).With("account_id", cmd.AccountID.String())

	var created *request.Request
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.accountRepo.WithTx(tx).LockForUpdate(ctx, cmd.AccountID)
		if err != nil {
			return err
		}
		acc := locked[cmd.AccountID]
		if acc.Verified {
			return shared.NewValidationError("kyc", "the account is already verified")
		}

		requests := s.requestRepo.WithTx(tx)
		pending, err := requests.HasPending(ctx, acc.ID, request.TypeKyc)
		if err != nil {
			return err
		}
		if pending {
			return shared.NewValidationError("kyc", "a verification request is already pending")
		}

		req, err := request.NewKyc(acc.ID, request.KycDetails{
			DocumentType:     strings.TrimSpace(cmd.DocumentType),
			DocumentFrontURL: strings.TrimSpace(cmd.DocumentFrontURL),
			DocumentBackURL:  strings.TrimSpace(cmd.DocumentBackURL),
			SelfieURL:        strings.TrimSpace(cmd.SelfieURL),
		})
		if err != nil {
			return err
		}
		if err := requests.Create(ctx, req); err != nil {
			return err
		}

		event := outbox.NewLedgerEvent(outbox.EventKycSubmitted, acc.ID, req.Amount, "Verification Submitted",
			"Your documents were received and are awaiting review.")
		event.RequestID = &req.ID
		event.AdminAlert = kycAlert(acc, req)
		if err := s.events.Publish(ctx, tx, event); err != nil {
			return err
		}

		created = req
		return nil
	})
	if err != nil {
		logFailure(logger, "Verification submission failed", err)
		return nil, classify("submit kyc", err)
	}

	logger.Info("Verification submitted", "request_id", created.ID.String())
	return created, nil
}

// lockOwner locks the acting account. A missing account fails the PIN gate rather than
// revealing that the id is unknown.
func (s *LedgerServiceImpl) lockOwner(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*account.Account, error) {
	locked, err := s.accountRepo.WithTx(tx).LockForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, account.ErrInvalidPin
		}
		return nil, err
	}
	return locked[id], nil
}

func requestLogger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := shared.CorrelationID(ctx); id != "" {
		return logger.With("correlation_id", id)
	}
	return logger
}

// logFailure logs business rejections at warn and everything else at error.
func logFailure(logger *slog.Logger, msg string, err error) {
	if errors.Is(classify("", err), shared.ErrStoreUnavailable) {
		logger.Error(msg, "error", err)
		return
	}
	logger.Warn(msg, "error", err)
}
