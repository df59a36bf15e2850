package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flash-wallet-ledger/internal/api_gateway"
	"github.com/flash-wallet-ledger/internal/api_gateway/handler"
	"github.com/flash-wallet-ledger/internal/api_gateway/service"
	"github.com/flash-wallet-ledger/internal/config"
	"github.com/flash-wallet-ledger/internal/data/mongo"
	"github.com/flash-wallet-ledger/internal/data/postgres"
	"github.com/flash-wallet-ledger/internal/domain/account"
	"github.com/flash-wallet-ledger/internal/ledger_engine/components"
	ledger "github.com/flash-wallet-ledger/internal/ledger_engine/service"
	"github.com/flash-wallet-ledger/internal/logger"
	"github.com/flash-wallet-ledger/internal/platform/metrics"
	"github.com/flash-wallet-ledger/internal/platform/notifier/telegram"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting API Gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Migrations run as part of connecting
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := components.Repositories{
		Accounts:      postgres.NewAccountRepository(log, postgresDB),
		Transactions:  postgres.NewTransactionRepository(log, postgresDB),
		Requests:      postgres.NewRequestRepository(log, postgresDB),
		Notifications: postgres.NewNotificationRepository(log, postgresDB),
		Outbox:        postgres.NewOutboxRepository(log, postgresDB),
		Catalog:       postgres.NewCatalogRepository(log, postgresDB),
	}
	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())

	var (
		collector *metrics.Collector
		observer  ledger.OperationObserver
	)
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(log)
		observer = collector
	}

	// Initialize services
	txRunner := persistence.NewTxRunner(postgresDB.Pool(), cfg.Ledger, log)
	pinGuard := account.NewPinGuard(
		postgres.NewPinAttemptRepository(log, postgresDB),
		cfg.Ledger.PinMaxAttempts,
		cfg.Ledger.PinLockout,
	)
	ledgerService, reviewService := components.CreateLedgerServices(txRunner, repos, pinGuard, observer, log)

	services := api_gateway.Services{
		Accounts:      service.NewAccountService(repos.Accounts, repos.Transactions, activityRepo, pinGuard, log),
		Notifications: service.NewNotificationService(repos.Notifications),
		Catalog:       service.NewCatalogService(repos.Catalog, repos.Accounts),
		Ledger:        ledgerService,
		Review:        reviewService,
	}

	var answerer handler.CallbackAnswerer
	if cfg.Telegram.Enabled() {
		answerer = telegram.NewClient(cfg.Telegram, log)
	} else {
		log.Warn("Telegram bot not configured, callback queries will not be answered")
	}

	server := api_gateway.NewServer(log, cfg, services, collector, answerer)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain HTTP first so in-flight ledger transactions can still commit
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
