// Package config defines the configuration structures of SynthonScope.  No
// I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSAllowedOrigins enables CORS for the listed origins.  Empty
	// disables CORS handling.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitRPS is the per-client request rate.  Zero disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// DatabaseConfig holds PostgreSQL parameters for the analysis store.  An
// empty Host disables persistence.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// MigrationPath is a golang-migrate source URL.  Empty selects the
	// migrations compiled into the binary.
	MigrationPath string `mapstructure:"migration_path"`
	AutoMigrate   bool   `mapstructure:"auto_migrate"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

// RedisConfig holds parameters for the report cache.  An empty Addr disables
// caching.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	Codec        string        `mapstructure:"codec"` // "json" | "msgpack"

	// Breaker trips after this many consecutive cache failures.
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

// KafkaConfig holds producer and consumer parameters for asynchronous
// analysis jobs.  An empty broker list disables messaging.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	TopicPrefix     string        `mapstructure:"topic_prefix"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`

	AutoCreateTopics  bool `mapstructure:"auto_create_topics"`
	NumPartitions     int  `mapstructure:"num_partitions"`
	ReplicationFactor int  `mapstructure:"replication_factor"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	// Consumers is the number of group members run by one worker process.
	Consumers int `mapstructure:"consumers"`
	// HealthAddr serves /healthz, /readyz and /metrics.
	HealthAddr string `mapstructure:"health_addr"`
	// LockTTL bounds how long a request id stays claimed by one worker.
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// AnalysisConfig tunes reactive-site extraction.
type AnalysisConfig struct {
	// AtomProperties and BondProperties are the filters used when a request
	// names none.  Empty means every property.
	AtomProperties []string      `mapstructure:"atom_properties"`
	BondProperties []string      `mapstructure:"bond_properties"`
	Concurrency    int           `mapstructure:"concurrency"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	MaxSMILESLen   int           `mapstructure:"max_smiles_length"`
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// Logging converts the section into the logging package's own config.
func (l LogConfig) Logging(service string) logging.LogConfig {
	out := logging.LogConfig{Level: l.Level, Format: l.Format, Service: service}
	if l.Output != "" {
		out.OutputPaths = []string{l.Output}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  Every infrastructure
// component and application service reads its settings from the relevant
// sub-struct.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers treat any error as fatal.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	// Database
	if c.Database.Enabled() {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
		}
		if c.Database.User == "" {
			return fmt.Errorf("config: database.user is required when database.host is set")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("config: database.db_name is required when database.host is set")
		}
	}

	// Redis
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}
	switch c.Redis.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("config: redis.codec %q is invalid; expected json|msgpack", c.Redis.Codec)
	}

	// Kafka
	if c.Kafka.Enabled() && c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required when brokers are set")
	}
	switch c.Kafka.AutoOffsetReset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("config: kafka.auto_offset_reset %q is invalid; expected earliest|latest", c.Kafka.AutoOffsetReset)
	}

	// Worker
	if c.Worker.MaxRetries < 0 {
		return fmt.Errorf("config: worker.max_retries must be >= 0, got %d", c.Worker.MaxRetries)
	}
	if c.Worker.Consumers < 1 {
		return fmt.Errorf("config: worker.consumers must be >= 1, got %d", c.Worker.Consumers)
	}

	// Analysis
	if _, err := c.Analysis.AtomFilter(); err != nil {
		return fmt.Errorf("config: analysis.atom_properties: %w", err)
	}
	if _, err := c.Analysis.BondFilter(); err != nil {
		return fmt.Errorf("config: analysis.bond_properties: %w", err)
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("config: analysis.concurrency must be >= 1, got %d", c.Analysis.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// AtomFilter resolves the configured default atom filter.
func (a AnalysisConfig) AtomFilter() (chem.AtomFilter, error) {
	if len(a.AtomProperties) == 0 {
		return chem.AllAtomProperties(), nil
	}
	return chem.ParseAtomFilter(a.AtomProperties)
}

// BondFilter resolves the configured default bond filter.
func (a AnalysisConfig) BondFilter() (chem.BondFilter, error) {
	if len(a.BondProperties) == 0 {
		return chem.AllBondProperties(), nil
	}
	return chem.ParseBondFilter(a.BondProperties)
}

//Personal.AI order the ending
