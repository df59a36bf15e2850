package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/flash-wallet-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ReviewServiceImpl struct {
	txRunner    TxRunner
	accountRepo account.Repository
	requestRepo request.Repository
	funds       FundsMover
	events      EventRecorder
	logger      *slog.Logger
}

func NewReviewService(
	txRunner TxRunner,
	accountRepo account.Repository,
	requestRepo request.Repository,
	funds FundsMover,
	events EventRecorder,
	logger *slog.Logger,
) ReviewService {
	return &ReviewServiceImpl{
		txRunner:    txRunner,
		accountRepo: accountRepo,
		requestRepo: requestRepo,
		funds:       funds,
		events:      events,
		logger:      logger,
	}
}

// decide locks a pending request of type t, applies effect and persists the new status,
// all in one transaction.
func (s *ReviewServiceImpl) decide(ctx context.Context, op string, t request.Type, id uuid.UUID, effect func(tx pgx.Tx, req *request.Request) error) (*request.Request, error) {
	logger := requestLogger(ctx, s.logger).With("request_id", id.String(), "request_type", string(t))

	var reviewed *request.Request
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		requests := s.requestRepo.WithTx(tx)
		req, err := requests.LockForUpdate(ctx, id, t)
		if err != nil {
			return err
		}
		if req.IsTerminal() {
			return request.ErrAlreadyProcessed{RequestID: req.ID, Status: req.Status}
		}
		if err := effect(tx, req); err != nil {
			return err
		}
		if err := requests.SaveReview(ctx, req); err != nil {
			return err
		}
		reviewed = req
		return nil
	})
	if err != nil {
		if errors.Is(err, request.ErrAlreadyProcessed{}) {
			logger.Info("Request already processed", "error", err)
		} else {
			logFailure(logger, "Review failed", err)
		}
		return nil, classify(op, err)
	}

	logger.Info("Request reviewed", "status", string(reviewed.Status), "account_id", reviewed.AccountID.String())
	return reviewed, nil
}

func (s *ReviewServiceImpl) publish(ctx context.Context, tx pgx.Tx, t outbox.EventType, req *request.Request, title, message string) error {
	event := outbox.NewLedgerEvent(t, req.AccountID, req.Amount, title, message)
	event.RequestID = &req.ID
	return s.events.Publish(ctx, tx, event)
}

// notifyAndPublish stores n for the request owner and mirrors it as an outbox event.
func (s *ReviewServiceImpl) notifyAndPublish(ctx context.Context, tx pgx.Tx, t outbox.EventType, req *request.Request, n *notification.Notification) error {
	if err := s.events.Notify(ctx, tx, n); err != nil {
		return err
	}
	return s.publish(ctx, tx, t, req, n.Title, n.Message)
}

// refund returns a request's reserved amount to its owner.
func (s *ReviewServiceImpl) refund(ctx context.Context, tx pgx.Tx, req *request.Request) error {
	if err := s.funds.Settle(ctx, tx, req.ID, transaction.StatusRejected); err != nil {
		return err
	}
	rec := transaction.NewRecord(req.AccountID, transaction.KindRefund, req.Amount, transaction.StatusCompleted, transaction.RefundCounterparty, &req.ID)
	_, err := s.funds.Credit(ctx, tx, rec)
	return err
}

func (s *ReviewServiceImpl) ApproveWithdrawal(ctx context.Context, requestID uuid.UUID) (*request.Request, error) {
	return s.decide(ctx, "approve withdrawal", request.TypeWithdrawal, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Approve("", time.Now().UTC()); err != nil {
			return err
		}
		if err := s.funds.Settle(ctx, tx, req.ID, transaction.StatusCompleted); err != nil {
			return err
		}
		return s.notifyAndPublish(ctx, tx, outbox.EventWithdrawalApproved, req,
			notification.WithdrawalConfirmed(req.AccountID, req.Amount))
	})
}

// RejectWithdrawal refunds the reserved amount in full; the payout fee is never charged.
func (s *ReviewServiceImpl) RejectWithdrawal(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error) {
	return s.decide(ctx, "reject withdrawal", request.TypeWithdrawal, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Reject(reason, time.Now().UTC()); err != nil {
			return err
		}
		if err := s.refund(ctx, tx, req); err != nil {
			return err
		}
		return s.notifyAndPublish(ctx, tx, outbox.EventWithdrawalRejected, req,
			notification.WithdrawalRejected(req.AccountID, req.Amount, strings.TrimSpace(reason)))
	})
}

func (s *ReviewServiceImpl) ApproveDeposit(ctx context.Context, requestID uuid.UUID) (*request.Request, error) {
	return s.decide(ctx, "approve deposit", request.TypeDeposit, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Approve("", time.Now().UTC()); err != nil {
			return err
		}
		rec := transaction.NewRecord(req.AccountID, transaction.KindDeposit, req.Amount, transaction.StatusCompleted, req.Deposit.MethodName, &req.ID)
		if _, err := s.funds.Credit(ctx, tx, rec); err != nil {
			return err
		}
		return s.notifyAndPublish(ctx, tx, outbox.EventDepositApproved, req,
			notification.DepositApproved(req.AccountID, req.Amount))
	})
}

func (s *ReviewServiceImpl) RejectDeposit(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error) {
	return s.decide(ctx, "reject deposit", request.TypeDeposit, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Reject(reason, time.Now().UTC()); err != nil {
			return err
		}
		message := "Your deposit of " + shared.FormatUSD(req.Amount) + " was rejected."
		if req.RejectionReason != nil {
			message += " Reason: " + *req.RejectionReason
		}
		return s.publish(ctx, tx, outbox.EventDepositRejected, req, "Deposit Rejected", message)
	})
}

// ApproveOrder marks an order delivered. resultPayload carries what the buyer receives,
// such as a voucher code.
func (s *ReviewServiceImpl) ApproveOrder(ctx context.Context, requestID uuid.UUID, resultPayload string) (*request.Request, error) {
	payload := strings.TrimSpace(resultPayload)
	if payload == "" {
		return nil, shared.NewValidationError("result_payload", "is required to deliver an order")
	}
	return s.decide(ctx, "approve order", request.TypeOrder, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Approve(payload, time.Now().UTC()); err != nil {
			return err
		}
		if err := s.funds.Settle(ctx, tx, req.ID, transaction.StatusCompleted); err != nil {
			return err
		}
		return s.notifyAndPublish(ctx, tx, outbox.EventOrderApproved, req,
			notification.OrderDelivered(req.AccountID, req.Order.ServiceName))
	})
}

func (s *ReviewServiceImpl) RejectOrder(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error) {
	return s.decide(ctx, "reject order", request.TypeOrder, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Reject(reason, time.Now().UTC()); err != nil {
			return err
		}
		if err := s.refund(ctx, tx, req); err != nil {
			return err
		}
		return s.notifyAndPublish(ctx, tx, outbox.EventOrderRejected, req,
			notification.OrderRejected(req.AccountID, req.Order.ServiceName, req.Amount, strings.TrimSpace(reason)))
	})
}

func (s *ReviewServiceImpl) ApproveKyc(ctx context.Context, requestID uuid.UUID) (*request.Request, error) {
	return s.decide(ctx, "approve kyc", request.TypeKyc, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Approve("", time.Now().UTC()); err != nil {
			return err
		}
		if err := s.accountRepo.WithTx(tx).MarkVerified(ctx, req.AccountID); err != nil {
			return err
		}
		return s.notifyAndPublish(ctx, tx, outbox.EventKycApproved, req,
			notification.VerificationApproved(req.AccountID))
	})
}

func (s *ReviewServiceImpl) RejectKyc(ctx context.Context, requestID uuid.UUID, reason string) (*request.Request, error) {
	return s.decide(ctx, "reject kyc", request.TypeKyc, requestID, func(tx pgx.Tx, req *request.Request) error {
		if err := req.Reject(reason, time.Now().UTC()); err != nil {
			return err
		}
		message := "Your identity verification was not approved."
		if req.RejectionReason != nil {
			message += " Reason: " + *req.RejectionReason
		}
		return s.publish(ctx, tx, outbox.EventKycRejected, req, "Verification Rejected", message)
	})
}

func (s *ReviewServiceImpl) Review(ctx context.Context, d Decision) (*request.Request, error) {
	approve := d.Action == request.ActionApprove
	if !approve && d.Action != request.ActionReject {
		return nil, shared.NewValidationError("action", "must be approve or reject")
	}

	switch d.Type {
	case request.TypeWithdrawal:
		if approve {
			return s.ApproveWithdrawal(ctx, d.RequestID)
		}
		return s.RejectWithdrawal(ctx, d.RequestID, d.Reason)
	case request.TypeDeposit:
		if approve {
			return s.ApproveDeposit(ctx, d.RequestID)
		}
		return s.RejectDeposit(ctx, d.RequestID, d.Reason)
	case request.TypeOrder:
		if approve {
			return s.ApproveOrder(ctx, d.RequestID, d.ResultPayload)
		}
		return s.RejectOrder(ctx, d.RequestID, d.Reason)
	case request.TypeKyc:
		if approve {
			return s.ApproveKyc(ctx, d.RequestID)
		}
		return s.RejectKyc(ctx, d.RequestID, d.Reason)
	}
	return nil, shared.NewValidationError("type", "must be one of deposit, withdrawal, order, kyc")
}

// ListPending returns one page of the pending queue for t, newest first, and the queue size.
func (s *ReviewServiceImpl) ListPending(ctx context.Context, t request.Type, limit, offset int) ([]*request.Request, int64, error) {
	limit, offset = shared.NormalizePage(limit, offset)
	items, err := s.requestRepo.ListPending(ctx, t, limit, offset)
	if err != nil {
		return nil, 0, classify("list pending requests", err)
	}
	total, err := s.requestRepo.CountPending(ctx, t)
	if err != nil {
		return nil, 0, classify("count pending requests", err)
	}
	return items, total, nil
}

func (s *ReviewServiceImpl) GetRequest(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify("get request", err)
	}
	return req, nil
}

func (s *ReviewServiceImpl) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.Request, error) {
	limit, offset = shared.NormalizePage(limit, offset)
	items, err := s.requestRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, classify("list account requests", err)
	}
	return items, nil
}
