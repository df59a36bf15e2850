package handler

import (
	"log/slog"
	"net/http"

	"github.com/flash-wallet-ledger/internal/api_gateway/service"
	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	currency       string
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler. currency labels balances.
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService, currency string) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		currency:       currency,
		logger:         logger,
	}
}

// Register creates the caller's account from the token subject and the submitted profile
func (h *AccountHandler) Register(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}

	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.Register(c.Request.Context(), id, account.Registration{
		Username:    req.Username,
		Email:       req.Email,
		Phone:       req.Phone,
		DisplayName: req.DisplayName,
		Country:     req.Country,
		Language:    req.Language,
	})
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc, h.currency))
}

// Me returns the caller's profile and balance
func (h *AccountHandler) Me(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}

	acc, err := h.accountService.GetProfile(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc, h.currency))
}

// SetPin sets or changes the caller's transaction PIN
func (h *AccountHandler) SetPin(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}

	var req SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.accountService.SetPin(c.Request.Context(), id, req.CurrentPin, req.NewPin); err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

// Resolve previews a transfer recipient by custom code or username (?q=)
func (h *AccountHandler) Resolve(c *gin.Context) {
	acc, err := h.accountService.Resolve(c.Request.Context(), c.Query("q"))
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, mapPublicAccount(acc))
}

// Transactions lists the caller's transaction log, newest first
func (h *AccountHandler) Transactions(c *gin.Context) {
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

	records, total, err := h.accountService.ListTransactions(c.Request.Context(), id, limit, offset)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, records, MetaInfo{Limit: limit, Offset: offset, Total: &total})
}

// Activity lists the caller's projected activity feed
func (h *AccountHandler) Activity(c *gin.Context) {
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

	entries, total, err := h.accountService.ListActivity(c.Request.Context(), id, limit, offset)
	if err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, entries, MetaInfo{Limit: limit, Offset: offset, Total: &total})
}

// Purge deletes an account and everything it owns. Admin only.
func (h *AccountHandler) Purge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.accountService.Purge(c.Request.Context(), id); err != nil {
		RespondWithServiceError(c, h.logger, err)
		return
	}
	h.logger.Info("Account purged by admin", "account_id", id)
	RespondNoContent(c)
}
