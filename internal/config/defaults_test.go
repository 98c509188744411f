package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerHost, cfg.Server.Host)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultDBName, cfg.Database.DBName)
	assert.Equal(t, DefaultRedisCodec, cfg.Redis.Codec)
	assert.Equal(t, DefaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, DefaultAnalysisCacheTTL, cfg.Analysis.CacheTTL)
	assert.Equal(t, DefaultAnalysisConcurrency, cfg.Analysis.Concurrency)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)
	assert.Equal(t, 1, cfg.Worker.Consumers)
	assert.Equal(t, DefaultWorkerHealthAddr, cfg.Worker.HealthAddr)
	assert.Equal(t, 5*time.Minute, cfg.Worker.LockTTL)

	assert.Empty(t, cfg.Database.Host)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Nil(t, cfg.Analysis.AtomProperties)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Analysis.CacheTTL = time.Minute
	cfg.Redis.Codec = "msgpack"
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Analysis.CacheTTL)
	assert.Equal(t, "msgpack", cfg.Redis.Codec)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
