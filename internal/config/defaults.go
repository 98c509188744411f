package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080

	DefaultDBPort    = 5432
	DefaultDBName    = "synscope"
	DefaultDBSSLMode = "disable"

	DefaultRedisKeyPrefix = "synscope:"
	DefaultRedisCodec     = "json"

	DefaultKafkaGroupID     = "synscope-worker"
	DefaultKafkaTopicPrefix = ""

	DefaultWorkerMaxRetries = 3
	DefaultWorkerHealthAddr = ":8081"

	DefaultAnalysisConcurrency = 4
	DefaultAnalysisCacheTTL    = time.Hour
	DefaultMaxSMILESLength     = 20000

	DefaultMetricsNamespace = "synscope"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with its default.  Fields
// already set are left unchanged so explicit configuration always wins.
// Connection targets (database.host, redis.addr, kafka.brokers) have no
// default: leaving them empty disables the component.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 1 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	// DB 0 is both the default and a valid explicit value.
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = 5 * time.Second
	}
	if cfg.Redis.ReadTimeout == 0 {
		cfg.Redis.ReadTimeout = 3 * time.Second
	}
	if cfg.Redis.WriteTimeout == 0 {
		cfg.Redis.WriteTimeout = 3 * time.Second
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.Codec == "" {
		cfg.Redis.Codec = DefaultRedisCodec
	}
	if cfg.Redis.BreakerFailures == 0 {
		cfg.Redis.BreakerFailures = 5
	}
	if cfg.Redis.BreakerTimeout == 0 {
		cfg.Redis.BreakerTimeout = 30 * time.Second
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.Kafka.MaxAttempts == 0 {
		cfg.Kafka.MaxAttempts = 3
	}
	if cfg.Kafka.NumPartitions == 0 {
		cfg.Kafka.NumPartitions = 6
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = DefaultWorkerMaxRetries
	}
	if cfg.Worker.RetryBackoff == 0 {
		cfg.Worker.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Worker.MaxBackoff == 0 {
		cfg.Worker.MaxBackoff = 10 * time.Second
	}
	if cfg.Worker.HandlerTimeout == 0 {
		cfg.Worker.HandlerTimeout = 60 * time.Second
	}
	if cfg.Worker.Consumers == 0 {
		cfg.Worker.Consumers = 1
	}
	if cfg.Worker.HealthAddr == "" {
		cfg.Worker.HealthAddr = DefaultWorkerHealthAddr
	}
	if cfg.Worker.LockTTL == 0 {
		cfg.Worker.LockTTL = 5 * time.Minute
	}

	// ── Analysis ──────────────────────────────────────────────────────────────
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = DefaultAnalysisConcurrency
	}
	if cfg.Analysis.CacheTTL == 0 {
		cfg.Analysis.CacheTTL = DefaultAnalysisCacheTTL
	}
	if cfg.Analysis.MaxSMILESLen == 0 {
		cfg.Analysis.MaxSMILESLen = DefaultMaxSMILESLength
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Default returns a Config holding only defaults.  The CLI runs on it when no
// file is given.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
