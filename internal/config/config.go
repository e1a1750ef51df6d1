// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for all major components including
// server settings, database connections, the VAS provider client, message queues,
// and settlement parameters.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration (e.g., HTTP server, databases,
// provider client) and is validated during application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Provider    ProviderConfig
	Vas         VasConfig
	Settlement  SettlementConfig
	Pin         PinConfig
	Worker      WorkerConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	EventsTopic       string // Domain events (purchases, transfers, settlements)
	AlertsTopic       string // Reconciliation alerts requiring manual action
	NumPartitions     int    // Number of partitions for topics
	ReplicationFactor int    // Replication factor for topics
	MaxWait           time.Duration
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
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

// RedisConfig contains Redis configuration for the PIN attempt limiter
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProviderConfig contains the external VAS provider client configuration
type ProviderConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration // Per-call HTTP timeout
	ConnectRetries  int           // Retries for pre-send connection failures only
	RequeryAttempts int           // Immediate requeries when a submit is ambiguous
	RequeryDelay    time.Duration // Delay between immediate requeries
}

// VasConfig contains purchase orchestration configuration
type VasConfig struct {
	// ReservationStaleAfter is how long a PENDING idempotency reservation
	// blocks duplicates before a fresh caller may take it over. Covers
	// crashes between reservation and completion.
	ReservationStaleAfter time.Duration
}

// SettlementConfig contains the fare split percentages and the platform
// wallet that collects fees and rounding remainders
type SettlementConfig struct {
	DriverPct        int
	OperatorPct      int
	PlatformPct      int
	PlatformWalletID string
}

// PlatformWallet parses the configured platform wallet ID
func (c SettlementConfig) PlatformWallet() (uuid.UUID, error) {
	return uuid.Parse(c.PlatformWalletID)
}

// PinConfig contains PIN verification rate limiting configuration
type PinConfig struct {
	MaxAttempts   int
	AttemptWindow time.Duration
}

// WorkerConfig contains the delivery reconciliation worker configuration
type WorkerConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	PoolSize       int           // Maximum number of workers in the pool
	MinPurchaseAge time.Duration // Skip purchases requeried more recently than this
	RequeryTimeout time.Duration // Per-purchase requery deadline
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.EventsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_EVENTS_TOPIC is required")
	}
	if c.Kafka.AlertsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_ALERTS_TOPIC is required")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_MAX_WAIT must be greater than 0")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Redis config
	if c.Redis.Addr == "" {
		validationErrors = append(validationErrors, "REDIS_ADDR is required")
	}

	// Validate Provider config
	if c.Provider.BaseURL == "" {
		validationErrors = append(validationErrors, "PROVIDER_BASE_URL is required")
	}
	if c.Provider.Timeout <= 0 {
		validationErrors = append(validationErrors, "PROVIDER_TIMEOUT must be greater than 0")
	}
	if c.Provider.ConnectRetries < 0 {
		validationErrors = append(validationErrors, "PROVIDER_CONNECT_RETRIES must not be negative")
	}
	if c.Provider.RequeryAttempts <= 0 {
		validationErrors = append(validationErrors, "PROVIDER_REQUERY_ATTEMPTS must be greater than 0")
	}
	if c.Provider.RequeryDelay <= 0 {
		validationErrors = append(validationErrors, "PROVIDER_REQUERY_DELAY must be greater than 0")
	}

	// Validate Vas config
	if c.Vas.ReservationStaleAfter <= 0 {
		validationErrors = append(validationErrors, "VAS_RESERVATION_STALE_AFTER must be greater than 0")
	}

	// Validate Settlement config
	if c.Settlement.DriverPct < 0 || c.Settlement.OperatorPct < 0 || c.Settlement.PlatformPct < 0 {
		validationErrors = append(validationErrors, "settlement percentages must not be negative")
	}
	if c.Settlement.DriverPct+c.Settlement.OperatorPct+c.Settlement.PlatformPct > 100 {
		validationErrors = append(validationErrors, "settlement percentages must sum to at most 100")
	}
	if c.Settlement.PlatformWalletID == "" {
		validationErrors = append(validationErrors, "SETTLEMENT_PLATFORM_WALLET_ID is required")
	} else if _, err := uuid.Parse(c.Settlement.PlatformWalletID); err != nil {
		validationErrors = append(validationErrors, "SETTLEMENT_PLATFORM_WALLET_ID must be a valid UUID")
	}

	// Validate Pin config
	if c.Pin.MaxAttempts <= 0 {
		validationErrors = append(validationErrors, "PIN_MAX_ATTEMPTS must be greater than 0")
	}
	if c.Pin.AttemptWindow <= 0 {
		validationErrors = append(validationErrors, "PIN_ATTEMPT_WINDOW must be greater than 0")
	}

	// Validate Worker config
	if c.Worker.PollInterval <= 0 {
		validationErrors = append(validationErrors, "WORKER_POLL_INTERVAL must be greater than 0")
	}
	if c.Worker.BatchSize <= 0 {
		validationErrors = append(validationErrors, "WORKER_BATCH_SIZE must be greater than 0")
	}
	if c.Worker.PoolSize <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}
	if c.Worker.MinPurchaseAge <= 0 {
		validationErrors = append(validationErrors, "WORKER_MIN_PURCHASE_AGE must be greater than 0")
	}
	if c.Worker.RequeryTimeout <= 0 {
		validationErrors = append(validationErrors, "WORKER_REQUERY_TIMEOUT must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
