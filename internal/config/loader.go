// Package config provides configuration loading, defaults, and validation for
// SynthonScope.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "SYNSCOPE"

// bindKeys lists every leaf key so that AutomaticEnv can see environment
// overrides for keys absent from the file.  viper's Unmarshal only consults
// env vars for keys it already knows.
var bindKeys = []string{
	"server.host", "server.port", "server.read_timeout", "server.write_timeout",
	"server.max_body_size", "server.shutdown_timeout", "server.cors_allowed_origins",
	"server.rate_limit_rps", "server.rate_limit_burst",
	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_open_conns",
	"database.max_idle_conns", "database.conn_max_lifetime", "database.migration_path",
	"database.auto_migrate",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size", "redis.dial_timeout",
	"redis.read_timeout", "redis.write_timeout", "redis.key_prefix", "redis.codec",
	"redis.breaker_failures", "redis.breaker_timeout",
	"kafka.brokers", "kafka.group_id", "kafka.topic_prefix", "kafka.auto_offset_reset",
	"kafka.batch_timeout", "kafka.max_attempts", "kafka.auto_create_topics",
	"kafka.num_partitions", "kafka.replication_factor",
	"worker.max_retries", "worker.retry_backoff",
	"worker.max_backoff", "worker.handler_timeout", "worker.consumers",
	"worker.health_addr", "worker.lock_ttl",
	"analysis.atom_properties", "analysis.bond_properties", "analysis.concurrency",
	"analysis.cache_ttl", "analysis.max_smiles_length",
	"metrics.enabled", "metrics.namespace", "metrics.path",
	"log.level", "log.format", "log.output",
}

// newViper builds a pre-configured Viper instance: YAML file type, SYNSCOPE_
// env prefix, automatic env binding, and a key replacer mapping "." to "_" so
// that "database.host" resolves to SYNSCOPE_DATABASE_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range bindKeys {
		_ = v.BindEnv(k)
	}
	// Booleans cannot be defaulted after unmarshalling.
	v.SetDefault("metrics.enabled", true)
	return v
}

// Load reads the YAML file at configPath, merges SYNSCOPE_* environment
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SYNSCOPE_* environment variables.
//
//	SYNSCOPE_<SECTION>_<FIELD>   e.g.  SYNSCOPE_REDIS_ADDR, SYNSCOPE_LOG_LEVEL
//
// List values such as kafka.brokers are comma separated.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrDefault loads configPath when it is non-empty and otherwise falls back
// to the environment.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed Config
// whenever the file changes.  Callers apply only the safe subset at runtime
// (log level, default filters).  A change that fails to parse or validate is
// reported to onError, when non-nil, and onChange is not called.
//
// Watch is non-blocking; viper runs the fsnotify loop in its own goroutine.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on error.  For main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
