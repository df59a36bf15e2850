package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/flash-wallet-ledger/internal/api_gateway/middleware"
	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	ledger "github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/gin-gonic/gin"
)

// SecretTokenHeader carries the secret registered with the bot webhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// CallbackAnswerer acknowledges a button press in the bot chat.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackQueryID, text string) error
}

type callbackUpdate struct {
	UpdateID      int64          `json:"update_id"`
	CallbackQuery *callbackQuery `json:"callback_query"`
}

type callbackQuery struct {
	ID   string `json:"id"`
	Data string `json:"data"`
	From struct {
		ID int64 `json:"id"`
	} `json:"from"`
}

// CallbackHandler turns admin bot button presses into review decisions
type CallbackHandler struct {
	reviewService ledger.ReviewService
	answerer      CallbackAnswerer
	secret        string
	adminChatIDs  []int64
	logger        *slog.Logger
}

// NewCallbackHandler creates the webhook handler. answerer may be nil when outbound
// bot calls are disabled.
func NewCallbackHandler(
	logger *slog.Logger,
	reviewService ledger.ReviewService,
	answerer CallbackAnswerer,
	secret string,
	adminChatIDs []int64,
) *CallbackHandler {
	return &CallbackHandler{
		reviewService: reviewService,
		answerer:      answerer,
		secret:        secret,
		adminChatIDs:  adminChatIDs,
		logger:        logger,
	}
}

// Handle processes one webhook update
func (h *CallbackHandler) Handle(c *gin.Context) {
	if !h.authorized(c.GetHeader(SecretTokenHeader)) {
		RespondUnauthorized(c, "Invalid webhook secret")
		return
	}

	var update callbackUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondBadRequest(c, "Invalid update")
		return
	}
	q := update.CallbackQuery
	if q == nil {
		// Only button presses are acted on.
		acknowledge(c)
		return
	}

	log := h.logger.With(
		"update_id", update.UpdateID,
		"from_id", q.From.ID,
		"correlation_id", middleware.GetCorrelationID(c),
	)

	// Every update that passed the secret check is acknowledged with 200; Telegram
	// redelivers anything else. The outcome reaches the admin through the callback answer.
	ctx := c.Request.Context()
	if !slices.Contains(h.adminChatIDs, q.From.ID) {
		log.Warn("Callback from a user outside the admin list")
		h.answer(ctx, log, q.ID, "Not allowed")
		acknowledge(c)
		return
	}

	action, typ, id, err := request.ParseCallbackData(q.Data)
	if err != nil {
		log.Warn("Unrecognized callback data", "data", q.Data, "error", err)
		h.answer(ctx, log, q.ID, "Unknown action")
		acknowledge(c)
		return
	}

	log = log.With("request_id", id, "type", typ, "action", action)
	r, err := h.reviewService.Review(ctx, ledger.Decision{Type: typ, Action: action, RequestID: id})
	switch {
	case err == nil:
		log.Info("Request reviewed from bot")
		h.answer(ctx, log, q.ID, "Done: "+string(r.Status))
		RespondOK(c, r)
		return
	case errors.Is(err, request.ErrAlreadyProcessed{}):
		log.Info("Request was already reviewed")
		h.answer(ctx, log, q.ID, "Already processed")
	case errors.Is(err, shared.ErrStoreUnavailable):
		log.Error("Bot review failed", "error", err)
		h.answer(ctx, log, q.ID, "Failed, try again")
	default:
		log.Warn("Bot review refused", "error", err)
		h.answer(ctx, log, q.ID, "Failed")
	}
	acknowledge(c)
}

func acknowledge(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *CallbackHandler) authorized(token string) bool {
	if h.secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}

func (h *CallbackHandler) answer(ctx context.Context, log *slog.Logger, id, text string) {
	if h.answerer == nil || id == "" {
		return
	}
	if err := h.answerer.AnswerCallback(ctx, id, text); err != nil {
		log.Warn("Failed to answer callback query", "error", err)
	}
}
