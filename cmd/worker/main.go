// Command worker consumes analysis requests from Kafka and publishes their
// completions.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/turtacn/SynthonScope/internal/bootstrap"
	"github.com/turtacn/SynthonScope/internal/config"
	"github.com/turtacn/SynthonScope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/SynthonScope/internal/interfaces/http"
	"github.com/turtacn/SynthonScope/internal/interfaces/http/handlers"
	"github.com/turtacn/SynthonScope/internal/interfaces/http/middleware"
	"github.com/turtacn/SynthonScope/internal/interfaces/worker"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const (
	serviceName   = "synscope-worker"
	drainTimeout  = 30 * time.Second
	statsInterval = 15 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: SYNSCOPE_* environment)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment is read")
	consumers := flag.Int("consumers", 0, "consumer group members in this process (overrides config)")
	flag.Parse()

	if err := run(*configPath, *envFile, *consumers); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, consumers int) error {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if consumers > 0 {
		cfg.Worker.Consumers = consumers
	}
	if !cfg.Kafka.Enabled() {
		return errors.New(errors.ErrCodeValidation, "kafka.brokers is required to run the worker")
	}

	logger, _, err := logging.NewLogger(cfg.Log.Logging(serviceName))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.New(ctx, cfg, logger, serviceName, version)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := infra.Service(serviceName)
	if err != nil {
		return err
	}

	handler := worker.NewAnalysisJobHandler(svc, infra.Producer, lockFactory(infra), infra.Metrics, worker.HandlerConfig{
		Topics:  infra.Topics,
		Source:  serviceName,
		LockTTL: cfg.Worker.LockTTL,
	}, logger)

	logger.Info("starting SynthonScope worker",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.String("topic", handler.Topic()),
		logging.Int("consumers", cfg.Worker.Consumers))

	group, err := startConsumers(ctx, cfg, infra, handler, logger)
	if err != nil {
		return err
	}

	healthSrv, err := startHealthServer(cfg, infra, logger)
	if err != nil {
		closeConsumers(group, logger)
		return err
	}

	go infra.ReportDBStats(ctx, statsInterval)
	go reportLag(ctx, infra, handler.Topic(), group)

	<-ctx.Done()
	logger.Info("shutdown signal received; draining in-flight jobs")

	closeConsumers(group, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", logging.Err(err))
	}
	logger.Info("SynthonScope worker stopped")
	return nil
}

// lockFactory avoids handing a typed nil to the handler.
func lockFactory(infra *bootstrap.Infrastructure) worker.Claimer {
	if infra.Locks == nil {
		return nil
	}
	return infra.Locks
}

func startConsumers(ctx context.Context, cfg *config.Config, infra *bootstrap.Infrastructure, handler *worker.AnalysisJobHandler, logger logging.Logger) ([]*kafka.Consumer, error) {
	ccfg := kafka.ConsumerConfig{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.GroupID,
		Topics:          []string{handler.Topic()},
		AutoOffsetReset: cfg.Kafka.AutoOffsetReset,
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      cfg.Worker.MaxRetries,
			RetryBackoff:    cfg.Worker.RetryBackoff,
			MaxRetryBackoff: cfg.Worker.MaxBackoff,
			HandlerTimeout:  cfg.Worker.HandlerTimeout,
		},
	}

	group := make([]*kafka.Consumer, 0, cfg.Worker.Consumers)
	for i := 0; i < cfg.Worker.Consumers; i++ {
		c, err := kafka.NewConsumer(ccfg, infra.Producer, logger.With(logging.Int("member", i)))
		if err == nil {
			err = c.Subscribe(handler.Topic(), handler.Handle)
		}
		if err == nil {
			err = c.Start(ctx)
		}
		if err != nil {
			if c != nil {
				_ = c.Close()
			}
			closeConsumers(group, logger)
			return nil, err
		}
		group = append(group, c)
	}
	return group, nil
}

// closeConsumers stops every member concurrently; each waits for its
// in-flight record.
func closeConsumers(group []*kafka.Consumer, logger logging.Logger) {
	var wg sync.WaitGroup
	for _, c := range group {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Close(); err != nil {
				logger.Warn("consumer close failed", logging.Err(err))
			}
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		logger.Warn("drain timeout exceeded; exiting with jobs in flight")
	}
}

func reportLag(ctx context.Context, infra *bootstrap.Infrastructure, topic string, group []*kafka.Consumer) {
	if infra.Metrics == nil {
		return
	}
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var lag int64
			for _, c := range group {
				lag += c.Lag()
			}
			infra.Metrics.ConsumerBacklog.WithLabelValues(topic).Set(float64(lag))
		}
	}
}

// startHealthServer serves probes and metrics on worker.health_addr.
func startHealthServer(cfg *config.Config, infra *bootstrap.Infrastructure, logger logging.Logger) (*httpserver.Server, error) {
	host, portStr, err := net.SplitHostPort(cfg.Worker.HealthAddr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid worker.health_addr")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid worker.health_addr port")
	}
	serverCfg := cfg.Server
	serverCfg.Host = host
	serverCfg.Port = port

	router := httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version, infra.HealthCheckers()...).
			WithObserver(infra.HealthObserver()),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		MetricsCollector: infra.Collector,
		Metrics:          infra.Metrics,
		MetricsPath:      cfg.Metrics.Path,
	})
	srv := httpserver.NewServer(serverCfg, router, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("health server error", logging.Err(err))
		}
	}()
	return srv, nil
}

//Personal.AI order the ending
