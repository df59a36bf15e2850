package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/flash-wallet-ledger/internal/config"
	"github.com/flash-wallet-ledger/internal/data/mongo"
	"github.com/flash-wallet-ledger/internal/data/postgres"
	"github.com/flash-wallet-ledger/internal/event_dispatcher/consumer"
	"github.com/flash-wallet-ledger/internal/event_dispatcher/outbox_poller"
	"github.com/flash-wallet-ledger/internal/logger"
	"github.com/flash-wallet-ledger/internal/platform/messaging/consumers"
	"github.com/flash-wallet-ledger/internal/platform/messaging/producers"
	"github.com/flash-wallet-ledger/internal/platform/metrics"
	"github.com/flash-wallet-ledger/internal/platform/notifier/telegram"
	"github.com/flash-wallet-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("event_dispatcher")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Event Dispatcher",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())
	if err := activityRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create activity indexes", "error", err)
		os.Exit(1)
	}

	var (
		metricsServer    *http.Server
		dispatchObserver outbox_poller.DispatchObserver
		activityObserver consumer.ActivityObserver
	)
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector(log)
		dispatchObserver = collector
		activityObserver = collector
		metricsServer = collector.StartServer(fmt.Sprintf(":%d", cfg.Metrics.Port))
	}

	// Kafka producers
	eventProducer, err := producers.NewLedgerEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize ledger events producer", "error", err)
		os.Exit(1)
	}
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	var alerts outbox_poller.AlertSender
	if cfg.Telegram.Enabled() {
		alerts = telegram.NewClient(cfg.Telegram, log)
	} else {
		log.Warn("Telegram bot not configured, admin alerts are disabled")
	}

	// Outbox side
	dispatcher := outbox_poller.NewEventDispatcher(outboxRepo, eventProducer, alerts, dispatchObserver, log)
	poller, err := outbox_poller.NewPoller(&cfg.Outbox, &cfg.WorkerPool, outboxRepo, dispatcher, dispatchObserver, log)
	if err != nil {
		log.Error("Failed to initialize outbox poller", "error", err)
		os.Exit(1)
	}

	// Activity projection side
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)
	projector := consumer.NewActivityProjector(log, activityRepo, dlqProducer, activityObserver)

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	if err := kafkaConsumer.Subscribe(appCtx, projector.HandleMessage); err != nil {
		errChan <- fmt.Errorf("kafka consumer error: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("Outbox poller stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}
	poller.Shutdown(cfg.Server.ShutdownTimeout)

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}
	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing ledger events producer", "error", err)
	}
	if err = dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	if metricsServer != nil {
		if err = metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error stopping metrics server", "error", err)
		}
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Event Dispatcher shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Event Dispatcher shutdown completed with errors")
	} else {
		log.Info("Event Dispatcher shutdown completed successfully")
	}
}
