// Package bootstrap assembles the optional infrastructure shared by the API
// server and the worker.  A backend whose connection target is empty in the
// configuration is skipped, and the service runs without it.
package bootstrap

import (
	"context"
	"time"

	"github.com/turtacn/SynthonScope/internal/application/conversion"
	"github.com/turtacn/SynthonScope/internal/application/reactivity"
	"github.com/turtacn/SynthonScope/internal/config"
	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/internal/infrastructure/database/postgres"
	"github.com/turtacn/SynthonScope/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SynthonScope/internal/infrastructure/database/redis"
	"github.com/turtacn/SynthonScope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SynthonScope/internal/interfaces/http/handlers"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

// Infrastructure holds the clients of one process.  Nil fields are disabled
// backends.
type Infrastructure struct {
	Config *config.Config
	Logger logging.Logger

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Redis *redis.Client
	Cache reactivity.Cache
	Locks *redis.LockFactory

	DB       *postgres.Connection
	Analyses reaction.AnalysisRepository

	Producer *kafka.Producer
	Topics   kafka.Topics

	Converter *conversion.Converter
}

// New connects every configured backend.  service and version label the
// service_info gauge.  On failure everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger, service, version string) (*Infrastructure, error) {
	log := logging.OrNop(logger)
	infra := &Infrastructure{
		Config:    cfg,
		Logger:    log,
		Topics:    kafka.Topics{Prefix: cfg.Kafka.TopicPrefix},
		Converter: conversion.NewConverter(log),
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"metrics", func(context.Context) error { return infra.initMetrics(service, version) }},
		{"redis", infra.initRedis},
		{"postgres", infra.initPostgres},
		{"kafka", infra.initKafka},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			infra.Close()
			return nil, errors.Wrap(err, errors.CodeUnknown, step.name+" initialization failed")
		}
	}

	log.Info("infrastructure ready",
		logging.Bool("metrics", infra.Metrics != nil),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("postgres", infra.DB != nil),
		logging.Bool("kafka", infra.Producer != nil))
	return infra, nil
}

func (i *Infrastructure) initMetrics(service, version string) error {
	mc := i.Config.Metrics
	if !mc.Enabled {
		return nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            mc.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.Collector = collector
	i.Metrics = prometheus.NewAppMetrics(collector)
	i.Metrics.ServiceInfo.WithLabelValues(service, version).Set(1)
	return nil
}

func (i *Infrastructure) initRedis(context.Context) error {
	rc := i.Config.Redis
	if !rc.Enabled() {
		return nil
	}
	serializer, err := redis.NewSerializer(rc.Codec)
	if err != nil {
		return err
	}
	client, err := redis.NewClient(rc, i.Logger)
	if err != nil {
		return err
	}
	i.Redis = client

	cache := redis.NewRedisCache(client, i.Logger,
		redis.WithPrefix(rc.KeyPrefix),
		redis.WithSerializer(serializer),
		redis.WithDefaultTTL(i.Config.Analysis.CacheTTL))
	i.Cache = redis.NewBreakerCache(cache, redis.BreakerConfig{
		Failures: rc.BreakerFailures,
		Timeout:  rc.BreakerTimeout,
	}, i.Logger)
	i.Locks = redis.NewLockFactory(client, rc.KeyPrefix, i.Logger)
	return nil
}

func (i *Infrastructure) initPostgres(context.Context) error {
	dc := i.Config.Database
	if !dc.Enabled() {
		return nil
	}
	conn, err := postgres.NewConnection(dc, i.Logger)
	if err != nil {
		return err
	}
	i.DB = conn

	if dc.AutoMigrate {
		if err := postgres.NewMigrator(conn.DB(), dc.MigrationPath, i.Logger).Up(); err != nil {
			return err
		}
	}
	i.Analyses = repositories.NewPostgresAnalysisRepo(conn, i.Logger)
	return nil
}

func (i *Infrastructure) initKafka(ctx context.Context) error {
	kc := i.Config.Kafka
	if !kc.Enabled() {
		return nil
	}
	if kc.AutoCreateTopics {
		tm, err := kafka.NewTopicManager(kc.Brokers, i.Logger)
		if err != nil {
			return err
		}
		err = tm.EnsureTopics(ctx, kafka.AnalysisTopics(i.Topics, kc.NumPartitions, kc.ReplicationFactor))
		_ = tm.Close()
		if err != nil {
			return err
		}
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:          kc.Brokers,
		MaxAttempts:      kc.MaxAttempts,
		BatchTimeout:     kc.BatchTimeout,
		AutoCreateTopics: kc.AutoCreateTopics,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.Producer = producer
	return nil
}

// Service builds the reactivity service over the available backends.
// source names the process in completion events.
func (i *Infrastructure) Service(source string) (reactivity.Service, error) {
	deps := reactivity.Deps{
		Converter:  i.Converter,
		Cache:      i.Cache,
		Repository: i.Analyses,
		Logger:     i.Logger,
		Config:     i.Config.Analysis,
		Topics:     i.Topics,
		Source:     source,
	}
	// Typed nils must not reach the interfaces.
	if i.Producer != nil {
		deps.Publisher = i.Producer
	}
	if i.Metrics != nil {
		deps.Metrics = i.Metrics
	}
	return reactivity.NewService(deps)
}

// HealthCheckers lists the readiness checks of the connected backends.
func (i *Infrastructure) HealthCheckers() []handlers.HealthChecker {
	var out []handlers.HealthChecker
	if i.Redis != nil {
		out = append(out, i.Redis)
	}
	if i.DB != nil {
		out = append(out, i.DB)
	}
	return out
}

// HealthObserver exports readiness results as gauges, or nil without
// metrics.
func (i *Infrastructure) HealthObserver() handlers.HealthObserver {
	if i.Metrics == nil {
		return nil
	}
	return func(component string, up bool) {
		prometheus.RecordHealth(i.Metrics, component, up)
	}
}

// ReportDBStats samples pool statistics every interval until ctx ends.
func (i *Infrastructure) ReportDBStats(ctx context.Context, interval time.Duration) {
	if i.DB == nil || i.Metrics == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		prometheus.RecordDBStats(i.Metrics, "postgres", i.DB.DB().Stats())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close releases every client in reverse order of creation.  It is safe to
// call more than once.
func (i *Infrastructure) Close() {
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			i.Logger.Warn("kafka producer close failed", logging.Err(err))
		}
		i.Producer = nil
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			i.Logger.Warn("postgres close failed", logging.Err(err))
		}
		i.DB = nil
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			i.Logger.Warn("redis close failed", logging.Err(err))
		}
		i.Redis = nil
	}
}

//Personal.AI order the ending
