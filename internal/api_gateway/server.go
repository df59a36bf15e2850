package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/flash-wallet-ledger/internal/api_gateway/handler"
	"github.com/flash-wallet-ledger/internal/api_gateway/service"
	"github.com/flash-wallet-ledger/internal/config"
	ledger "github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/flash-wallet-ledger/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// Services are the application services the HTTP API is built on
type Services struct {
	Accounts      service.AccountService
	Notifications service.NotificationService
	Catalog       service.CatalogService
	Ledger        ledger.LedgerService
	Review        ledger.ReviewService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server. collector and answerer may be nil.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	services Services,
	collector *metrics.Collector,
	answerer handler.CallbackAnswerer,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	h := handlers{
		account:      handler.NewAccountHandler(log, services.Accounts, cfg.Ledger.Currency),
		ledger:       handler.NewLedgerHandler(log, services.Ledger, services.Review),
		review:       handler.NewReviewHandler(log, services.Review),
		notification: handler.NewNotificationHandler(log, services.Notifications),
		catalog:      handler.NewCatalogHandler(log, services.Catalog),
		callback: handler.NewCallbackHandler(
			log,
			services.Review,
			answerer,
			cfg.Telegram.WebhookSecret,
			cfg.Telegram.AdminChatIDs,
		),
	}

	opts := routerOptions{
		jwtSecret: []byte(cfg.Auth.JWTSecret),
		jwtIssuer: cfg.Auth.JWTIssuer,
	}
	if services.Accounts != nil {
		opts.accounts = services.Accounts
	}
	if collector != nil && cfg.Metrics.Enabled {
		opts.httpObserver = collector
		opts.metricsHandler = collector.Handler()
	}

	setupRouter(log, httpRouter, h, opts)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
