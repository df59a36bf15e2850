package service

import (
	"context"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/google/uuid"
)

// OperationObserver receives the result and duration of each ledger operation.
type OperationObserver interface {
	ObserveLedgerOp(operation string, err error, elapsed time.Duration)
}

// InstrumentedLedgerService decorates a LedgerService with operation metrics.
type InstrumentedLedgerService struct {
	base     LedgerService
	observer OperationObserver
}

func NewInstrumentedLedgerService(base LedgerService, observer OperationObserver) *InstrumentedLedgerService {
	return &InstrumentedLedgerService{base: base, observer: observer}
}

func (s *InstrumentedLedgerService) Transfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	start := time.Now()
	result, err := s.base.Transfer(ctx, cmd)
	s.observer.ObserveLedgerOp("transfer", err, time.Since(start))
	return result, err
}

func (s *InstrumentedLedgerService) RequestWithdrawal(ctx context.Context, cmd WithdrawalCommand) (*request.Request, error) {
	start := time.Now()
	req, err := s.base.RequestWithdrawal(ctx, cmd)
	s.observer.ObserveLedgerOp("request_withdrawal", err, time.Since(start))
	return req, err
}

func (s *InstrumentedLedgerService) SubmitDeposit(ctx context.Context, cmd DepositCommand) (*request.Request, error) {
	start := time.Now()
	req, err := s.base.SubmitDeposit(ctx, cmd)
	s.observer.ObserveLedgerOp("submit_deposit", err, time.Since(start))
	return req, err
}

func (s *InstrumentedLedgerService) Purchase(ctx context.Context, cmd PurchaseCommand) (*request.Request, error) {
	start := time.Now()
	req, err := s.base.Purchase(ctx, cmd)
	s.observer.ObserveLedgerOp("purchase", err, time.Since(start))
	return req, err
}

func (s *InstrumentedLedgerService) SubmitKyc(ctx context.Context, cmd KycCommand) (*request.Request, error) {
	start := time.Now()
	req, err := s.base.SubmitKyc(ctx, cmd)
	s.observer.ObserveLedgerOp("submit_kyc", err, time.Since(start))
	return req, err
}

// InstrumentedReviewService decorates the decision path of a ReviewService. Reads pass
// straight through.
type InstrumentedReviewService struct {
	ReviewService
	observer OperationObserver
}

func NewInstrumentedReviewService(base ReviewService, observer OperationObserver) *InstrumentedReviewService {
	return &InstrumentedReviewService{ReviewService: base, observer: observer}
}

func (s *InstrumentedReviewService) observe(op string, start time.Time, req *request.Request, err error) (*request.Request, error) {
	s.observer.ObserveLedgerOp(op, err, time.Since(start))
	return req, err
}

func (s *InstrumentedReviewService) ApproveWithdrawal(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.ApproveWithdrawal(ctx, id)
	return s.observe("approve_withdrawal", start, req, err)
}

func (s *InstrumentedReviewService) RejectWithdrawal(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.RejectWithdrawal(ctx, id, reason)
	return s.observe("reject_withdrawal", start, req, err)
}

func (s *InstrumentedReviewService) ApproveDeposit(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.ApproveDeposit(ctx, id)
	return s.observe("approve_deposit", start, req, err)
}

func (s *InstrumentedReviewService) RejectDeposit(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.RejectDeposit(ctx, id, reason)
	return s.observe("reject_deposit", start, req, err)
}

func (s *InstrumentedReviewService) ApproveOrder(ctx context.Context, id uuid.UUID, payload string) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.ApproveOrder(ctx, id, payload)
	return s.observe("approve_order", start, req, err)
}

func (s *InstrumentedReviewService) RejectOrder(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.RejectOrder(ctx, id, reason)
	return s.observe("reject_order", start, req, err)
}

func (s *InstrumentedReviewService) ApproveKyc(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.ApproveKyc(ctx, id)
	return s.observe("approve_kyc", start, req, err)
}

func (s *InstrumentedReviewService) RejectKyc(ctx context.Context, id uuid.UUID, reason string) (*request.Request, error) {
	start := time.Now()
	req, err := s.ReviewService.RejectKyc(ctx, id, reason)
	return s.observe("reject_kyc", start, req, err)
}

// Review dispatches through the instrumented methods so each decision is counted once.
func (s *InstrumentedReviewService) Review(ctx context.Context, d Decision) (*request.Request, error) {
	approve := d.Action == request.ActionApprove
	switch {
	case d.Type == request.TypeWithdrawal && approve:
		return s.ApproveWithdrawal(ctx, d.RequestID)
	case d.Type == request.TypeWithdrawal && d.Action == request.ActionReject:
		return s.RejectWithdrawal(ctx, d.RequestID, d.Reason)
	case d.Type == request.TypeDeposit && approve:
		return s.ApproveDeposit(ctx, d.RequestID)
	case d.Type == request.TypeDeposit && d.Action == request.ActionReject:
		return s.RejectDeposit(ctx, d.RequestID, d.Reason)
	case d.Type == request.TypeOrder && approve:
		return s.ApproveOrder(ctx, d.RequestID, d.ResultPayload)
	case d.Type == request.TypeOrder && d.Action == request.ActionReject:
		return s.RejectOrder(ctx, d.RequestID, d.Reason)
	case d.Type == request.TypeKyc && approve:
		return s.ApproveKyc(ctx, d.RequestID)
	case d.Type == request.TypeKyc && d.Action == request.ActionReject:
		return s.RejectKyc(ctx, d.RequestID, d.Reason)
	}
	return s.ReviewService.Review(ctx, d)
}
