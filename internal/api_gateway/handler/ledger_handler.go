package handler

import (
	"log/slog"
	"net/http"

	"github.com/flash-wallet-ledger/internal/domain/shared"
	ledger "github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler exposes the money-moving operations of the ledger engine
type LedgerHandler struct {
	ledgerService ledger.LedgerService
	reviewService ledger.ReviewService
	logger        *slog.Logger
}

func NewLedgerHandler(logger *slog.Logger, ledgerService ledger.LedgerService, reviewService ledger.ReviewService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		reviewService: reviewService,
		logger:        logger,
	}
}

// Transfer sends funds to another account immediately
func (h *LedgerHandler) Transfer(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.ledgerService.Transfer(c.Request.Context(), ledger.TransferCommand{
		SenderID:      id,
		RecipientCode: req.Recipient,
		Amount:        req.Amount,
		Pin:           req.Pin,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, TransferResponse{
		Transaction: result.Record,
		Balance:     result.Balance.StringFixed(shared.MoneyScale),
		Recipient:   mapPublicAccount(result.Recipient),
	})
}

// Withdraw reserves funds and queues a payout for review
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	r, err := h.ledgerService.RequestWithdrawal(c.Request.Context(), ledger.WithdrawalCommand{
		AccountID:    id,
		MethodID:     uuid.MustParse(req.MethodID),
		Amount:       req.Amount,
		Pin:          req.Pin,
		PayoutFields: req.PayoutFields,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondAccepted(c, r)
}

// Deposit queues a claim of funds sent through a deposit method
func (h *LedgerHandler) Deposit(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	r, err := h.ledgerService.SubmitDeposit(c.Request.Context(), ledger.DepositCommand{
		AccountID: id,
		MethodID:  uuid.MustParse(req.MethodID),
		Amount:    req.Amount,
		ProofURL:  req.ProofURL,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondAccepted(c, r)
}

// Order buys a marketplace service; the price is held until delivery or rejection
func (h *LedgerHandler) Order(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	r, err := h.ledgerService.Purchase(c.Request.Context(), ledger.PurchaseCommand{
		AccountID:    id,
		ServiceID:    uuid.MustParse(req.ServiceID),
		VariantIndex: req.VariantIndex,
		UserInput:    req.UserInput,
		Pin:          req.Pin,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondAccepted(c, r)
}

// Verify submits identity documents for review
func (h *LedgerHandler) Verify(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var req VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	r, err := h.ledgerService.SubmitKyc(c.Request.Context(), ledger.KycCommand{
		AccountID:        id,
		DocumentType:     req.DocumentType,
		DocumentFrontURL: req.DocumentFrontURL,
		DocumentBackURL:  req.DocumentBackURL,
		SelfieURL:        req.SelfieURL,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondAccepted(c, r)
}

// MyRequests lists the caller's own requests, newest first
func (h *LedgerHandler) MyRequests(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}
	limit, offset := q.Normalize()

	items, err := h.reviewService.ListByAccount(c.Request.Context(), id, limit, offset)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, items, MetaInfo{Limit: limit, Offset: offset})
}
