// Package metrics exposes Prometheus collectors for the gateway and the event dispatcher.
package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/flash-wallet-ledger/internal/domain/request"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for ledger operations
const (
	OutcomeOK               = "ok"
	OutcomeRejected         = "rejected"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeError            = "error"
)

// Collector owns a private registry so tests and multiple binaries never collide on the
// global one.
type Collector struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	ledgerOps      *prometheus.CounterVec
	ledgerLatency  *prometheus.HistogramVec
	outboxEvents   *prometheus.CounterVec
	alertsSent     *prometheus.CounterVec
	activityEvents *prometheus.CounterVec

	logger *slog.Logger
}

func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
		ledgerOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger engine operations by outcome",
		}, []string{"operation", "outcome"}),
		ledgerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Time spent in one ledger engine operation, retries included",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		outboxEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_outbox_events_total",
			Help: "Outbox events by dispatch result",
		}, []string{"event_type", "result"}),
		alertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_admin_alerts_total",
			Help: "Admin alerts sent through the bot",
		}, []string{"result"}),
		activityEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_activity_events_total",
			Help: "Ledger events consumed by the activity projector",
		}, []string{"result"}),
		logger: logger,
	}
}

// Outcome maps an operation error to its label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, request.ErrAlreadyProcessed{}):
		return OutcomeAlreadyProcessed
	case errors.Is(err, shared.ErrStoreUnavailable):
		return OutcomeError
	default:
		return OutcomeRejected
	}
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveLedgerOp(operation string, err error, elapsed time.Duration) {
	c.ledgerOps.WithLabelValues(operation, Outcome(err)).Inc()
	c.ledgerLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// OutboxEvent counts a dispatch attempt; result is "published", "retry" or "failed".
func (c *Collector) OutboxEvent(eventType, result string) {
	c.outboxEvents.WithLabelValues(eventType, result).Inc()
}

func (c *Collector) AdminAlert(err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	c.alertsSent.WithLabelValues(result).Inc()
}

// ActivityEvent counts a consumed event; result is "projected", "dead_lettered" or "failed".
func (c *Collector) ActivityEvent(result string) {
	c.activityEvents.WithLabelValues(result).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr in the background. The caller shuts the returned
// server down.
func (c *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		c.logger.Info("Starting metrics server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Metrics server failed", "error", err)
		}
	}()

	return server
}
