package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/flash-wallet-ledger/internal/api_gateway/middleware"
	"github.com/flash-wallet-ledger/internal/domain/request"
	ledger "github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/gin-gonic/gin"
)

// ReviewHandler serves the back-office review queue
type ReviewHandler struct {
	reviewService ledger.ReviewService
	logger        *slog.Logger
}

func NewReviewHandler(logger *slog.Logger, reviewService ledger.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, logger: logger}
}

// ListPending lists pending requests of one type (?type=), newest first
func (h *ReviewHandler) ListPending(c *gin.Context) {
	t, err := request.ParseType(c.Query("type"))
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}
	limit, offset := q.Normalize()

	items, total, err := h.reviewService.ListPending(c.Request.Context(), t, limit, offset)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, items, MetaInfo{Limit: limit, Offset: offset, Total: &total})
}

func (h *ReviewHandler) GetRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := h.reviewService.GetRequest(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, r)
}

// Approve approves a pending request. Orders need result_payload.
func (h *ReviewHandler) Approve(c *gin.Context) {
	h.decide(c, request.ActionApprove)
}

// Reject rejects a pending request with an optional reason, refunding held funds.
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.decide(c, request.ActionReject)
}

func (h *ReviewHandler) decide(c *gin.Context, action request.Action) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	existing, err := h.reviewService.GetRequest(ctx, id)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}

	r, err := h.reviewService.Review(ctx, ledger.Decision{
		Type:          existing.Type,
		Action:        action,
		RequestID:     id,
		Reason:        req.Reason,
		ResultPayload: req.ResultPayload,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}

	reviewer, _ := middleware.GetPrincipal(c)
	h.logger.Info("Request reviewed",
		"request_id", id,
		"type", r.Type,
		"action", action,
		"reviewer_id", reviewer.AccountID,
		"correlation_id", middleware.GetCorrelationID(c),
	)
	RespondOK(c, r)
}
