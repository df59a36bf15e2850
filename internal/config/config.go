// Package config provides configuration structures and validation for the ledger services.
// Both binaries (api_gateway and event_dispatcher) share one Config; each reads the
// sections it needs.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Ledger      LedgerConfig
	Auth        AuthConfig
	Telegram    TelegramConfig
	Metrics     MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers               string
	LedgerEventsTopic     string
	NumPartitions         int
	ReplicationFactor     int
	ActivityConsumerGroup string
	MinBytes              int
	MaxBytes              int
	MaxWait               time.Duration
	StartOffset           int64
	DLQTopic              string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig controls how the dispatcher drains the event outbox.
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// LedgerConfig tunes the ledger engine's transaction runner.
type LedgerConfig struct {
	TxMaxAttempts  int           // attempts per operation on serialization failure or deadlock
	TxRetryBackoff time.Duration // multiplied by the attempt number
	Currency       string        // display currency of account balances
	PinMaxAttempts int           // consecutive wrong PINs before the PIN locks
	PinLockout     time.Duration // how long a locked PIN stays locked
}

// AuthConfig describes how bearer tokens from the identity provider are verified.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// TelegramConfig configures the admin bot used for review alerts and callbacks.
// An empty BotToken disables outbound alerts.
type TelegramConfig struct {
	APIBaseURL    string
	BotToken      string
	AdminChatIDs  []int64
	WebhookSecret string
	Timeout       time.Duration
}

// Enabled reports whether outbound bot alerts are configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && len(t.AdminChatIDs) > 0
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Port    int // used by binaries without an HTTP API
}

// validate checks every section and reports all problems at once.
func (c *Config) validate() error {
	var problems []string
	check := func(ok bool, problem string) {
		if !ok {
			problems = append(problems, problem)
		}
	}

	check(c.Server.Port > 0, "SERVER_PORT must be greater than 0")
	check(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	check(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	check(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	check(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	check(c.Kafka.Brokers != "", "KAFKA_BROKERS is required")
	check(c.Kafka.LedgerEventsTopic != "", "KAFKA_LEDGER_EVENTS_TOPIC is required")
	check(c.Kafka.ActivityConsumerGroup != "", "KAFKA_ACTIVITY_CONSUMER_GROUP is required")
	check(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	check(c.Kafka.MaxBytes > 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	check(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	check(c.Kafka.DLQTopic != "", "KAFKA_DLQ_TOPIC is required")

	check(c.Postgres.URL != "", "POSTGRES_URL is required")
	check(c.Postgres.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	check(c.Postgres.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
	check(c.Postgres.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	check(c.Postgres.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")

	check(c.MongoDB.URI != "", "MONGO_URI is required")
	check(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	check(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	check(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")

	check(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	check(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	check(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	check(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")

	check(c.Ledger.TxMaxAttempts > 0, "LEDGER_TX_MAX_ATTEMPTS must be greater than 0")
	check(c.Ledger.TxRetryBackoff >= 0, "LEDGER_TX_RETRY_BACKOFF must not be negative")
	check(c.Ledger.PinMaxAttempts > 0, "LEDGER_PIN_MAX_ATTEMPTS must be greater than 0")
	check(c.Ledger.PinLockout > 0, "LEDGER_PIN_LOCKOUT must be greater than 0")

	check(c.Auth.JWTSecret != "", "AUTH_JWT_SECRET is required")
	check(c.Auth.JWTSecret == "" || len(c.Auth.JWTSecret) >= 32, "AUTH_JWT_SECRET must be at least 32 characters")

	if c.Telegram.BotToken != "" {
		check(len(c.Telegram.AdminChatIDs) > 0, "TELEGRAM_ADMIN_CHAT_IDS is required when TELEGRAM_BOT_TOKEN is set")
		check(c.Telegram.WebhookSecret != "", "TELEGRAM_WEBHOOK_SECRET is required when TELEGRAM_BOT_TOKEN is set")
	}
	check(c.Telegram.Timeout > 0, "TELEGRAM_TIMEOUT must be greater than 0")

	check(!c.Metrics.Enabled || c.Metrics.Port > 0, "METRICS_PORT must be greater than 0")

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
