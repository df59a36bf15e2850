package handler

import (
	"net/http"

	"github.com/flash-wallet-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with. Exactly one of Data and Error
// is set; list endpoints add Meta.
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes the page returned by list endpoints
type MetaInfo struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Total  *int64 `json:"total,omitempty"`
	Unread *int64 `json:"unread,omitempty"`
}

// write stamps the request's correlation id on resp and sends it.
func write(c *gin.Context, status int, resp Response) {
	resp.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(status, resp)
}

func RespondWithData(c *gin.Context, statusCode int, data any) {
	write(c, statusCode, Response{Data: data})
}

func RespondWithPaginatedData(c *gin.Context, statusCode int, data any, meta MetaInfo) {
	write(c, statusCode, Response{Data: data, Meta: &meta})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	write(c, statusCode, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

func RespondOK(c *gin.Context, data any) { RespondWithData(c, http.StatusOK, data) }
func RespondCreated(c *gin.Context, data any) { RespondWithData(c, http.StatusCreated, data) }
func RespondAccepted(c *gin.Context, data any) { RespondWithData(c, http.StatusAccepted, data) }

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondUnauthorized falls back to a generic message when message is empty.
func RespondUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", orDefault(message, "Unauthorized"))
}

func RespondForbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, "FORBIDDEN", orDefault(message, "Forbidden"))
}

func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "CONFLICT", message)
}

// RespondServiceUnavailable is used when the ledger store cannot serve the request.
func RespondServiceUnavailable(c *gin.Context) {
	RespondWithError(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "The ledger store is temporarily unavailable")
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
