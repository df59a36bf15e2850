package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flash-wallet-ledger/internal/config"
	"github.com/flash-wallet-ledger/internal/domain/outbox"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// Poller drains pending outbox messages through a worker pool
type Poller struct {
	outboxRepo       outbox.Repository
	dispatcher       EventDispatcher
	observer         DispatchObserver
	pool             *ants.Pool
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	poolCfg *config.WorkerPoolConfig,
	outboxRepo outbox.Repository,
	dispatcher EventDispatcher,
	observer DispatchObserver,
	logger *slog.Logger,
) (*Poller, error) {
	pool, err := ants.NewPool(poolCfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch worker pool: %w", err)
	}

	return &Poller{
		outboxRepo:       outboxRepo,
		dispatcher:       dispatcher,
		observer:         observer,
		pool:             pool,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}, nil
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Outbox poller running",
		"interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_attempts", p.maxRetryAttempts,
		"workers", p.pool.Cap(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
			if err := p.drainBatch(ctx); err != nil {
				p.logger.Error("Outbox batch skipped", "error", err)
			}
		}
	}
}

// drainBatch dispatches one batch and waits for it, so a row is never in flight twice.
func (p *Poller) drainBatch(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("load pending ledger events: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}
	p.logger.Debug("Dispatching ledger events", "count", len(messages))

	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			p.dispatchOne(ctx, msg)
		}); err != nil {
			wg.Done()
			p.logger.Error("Dispatch worker pool rejected event", "outbox_id", msg.ID, "error", err)
		}
	}
	wg.Wait()
	return nil
}

func (p *Poller) dispatchOne(ctx context.Context, msg *outbox.Message) {
	err := p.dispatcher.Dispatch(ctx, msg)
	if err == nil {
		return
	}

	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID, "event_type", msg.EventType)
	if errors.Is(err, ErrUndecodablePayload) {
		logger.Error("Ledger event payload is corrupt, marked as failed", "error", err)
		return
	}

	logger.Warn("Ledger event dispatch failed", "attempts", msg.Attempts, "error", err)

	if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
		logger.Error("Could not record dispatch attempt", "error", errInc)
		return
	}

	if !msg.ExhaustedAfter(p.maxRetryAttempts) {
		p.observe(msg, ResultRetry)
		return
	}

	logger.Warn("Giving up on ledger event", "attempts", msg.Attempts+1)
	if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
		logger.Error("Could not mark ledger event as failed", "error", errUpdate)
		return
	}
	p.observe(msg, ResultFailed)
}

func (p *Poller) observe(msg *outbox.Message, result string) {
	if p.observer != nil {
		p.observer.OutboxEvent(string(msg.EventType), result)
	}
}

// Shutdown releases the worker pool after in-flight dispatches finish or timeout passes.
func (p *Poller) Shutdown(timeout time.Duration) {
	p.logger.Info("Releasing dispatch workers", "running", p.pool.Running())
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		p.logger.Warn("Dispatch workers did not finish before timeout", "error", err)
	}
}
