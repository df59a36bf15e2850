package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/flash-wallet-ledger/internal/api_gateway/handler"
	"github.com/flash-wallet-ledger/internal/api_gateway/middleware"
	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	account      *handler.AccountHandler
	ledger       *handler.LedgerHandler
	review       *handler.ReviewHandler
	notification *handler.NotificationHandler
	catalog      *handler.CatalogHandler
	callback     *handler.CallbackHandler
}

// routerOptions carries the cross-cutting pieces of the router
type routerOptions struct {
	jwtSecret      []byte
	jwtIssuer      string
	accounts       middleware.AccountLookup // nil trusts the token's role claim
	httpObserver   middleware.HTTPObserver  // nil disables request metrics
	metricsHandler http.Handler             // nil disables /metrics
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers, opts routerOptions) {
	// Correlation id runs before the logger so every log line carries it.
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	if opts.httpObserver != nil {
		r.Use(middleware.Metrics(opts.httpObserver))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	if opts.metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.metricsHandler))
	}

	v1 := r.Group("/api/v1")

	// Bot webhook, authenticated by its secret token header
	v1.POST("/callbacks/telegram", h.callback.Handle)

	authed := v1.Group("")
	authed.Use(middleware.Auth(opts.jwtSecret, opts.jwtIssuer, logger))
	{
		accounts := authed.Group("/accounts")
		{
			accounts.POST("", h.account.Register)
			accounts.GET("/me", h.account.Me)
			accounts.PUT("/me/pin", h.account.SetPin)
			accounts.GET("/resolve", h.account.Resolve)
		}

		authed.GET("/transactions", h.account.Transactions)
		authed.GET("/activity", h.account.Activity)
		authed.GET("/requests", h.ledger.MyRequests)

		authed.POST("/transfers", h.ledger.Transfer)
		authed.POST("/withdrawals", h.ledger.Withdraw)
		authed.POST("/deposits", h.ledger.Deposit)
		authed.POST("/orders", h.ledger.Order)
		authed.POST("/verifications", h.ledger.Verify)

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", h.notification.List)
			notifications.POST("/read-all", h.notification.MarkAllRead)
			notifications.PATCH("/:id/read", h.notification.MarkRead)
			notifications.DELETE("/:id", h.notification.Delete)
		}

		catalog := authed.Group("/catalog")
		{
			catalog.GET("/deposit-methods", h.catalog.DepositMethods)
			catalog.GET("/withdrawal-methods", h.catalog.WithdrawalMethods)
			catalog.GET("/services", h.catalog.Services)
		}

		staff := authed.Group("/admin")
		staff.Use(middleware.RequireRole(opts.accounts, account.RoleAgent, account.RoleAdmin))
		{
			staff.GET("/requests", h.review.ListPending)
			staff.GET("/requests/:id", h.review.GetRequest)
		}

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireRole(opts.accounts, account.RoleAdmin))
		{
			admin.POST("/requests/:id/approve", h.review.Approve)
			admin.POST("/requests/:id/reject", h.review.Reject)
			admin.DELETE("/accounts/:id", h.account.Purge)
			admin.POST("/catalog/deposit-methods", h.catalog.CreateDepositMethod)
			admin.POST("/catalog/withdrawal-methods", h.catalog.CreateWithdrawalMethod)
			admin.POST("/catalog/services", h.catalog.CreateService)
		}
	}
}
