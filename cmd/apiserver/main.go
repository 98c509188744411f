// Command apiserver serves the reactive-site HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/turtacn/SynthonScope/internal/bootstrap"
	"github.com/turtacn/SynthonScope/internal/config"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/SynthonScope/internal/interfaces/http"
	"github.com/turtacn/SynthonScope/internal/interfaces/http/handlers"
	"github.com/turtacn/SynthonScope/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

const serviceName = "synscope-apiserver"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: SYNSCOPE_* environment)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before the environment is read")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *envFile, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string, port int) error {
	// A missing .env is normal outside development.
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, level, err := logging.NewLogger(cfg.Log.Logging(serviceName))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting SynthonScope API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.String("build_date", buildDate),
		logging.String("addr", cfg.Server.Addr()))

	if configPath != "" {
		err := config.Watch(configPath, func(next *config.Config) {
			level.Set(next.Log.Level)
			logger.Info("configuration reloaded", logging.String("log_level", next.Log.Level))
		}, func(err error) {
			logger.Warn("configuration reload rejected", logging.Err(err))
		})
		if err != nil {
			logger.Warn("configuration watch disabled", logging.Err(err))
		}
	}

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
	go infra.ReportDBStats(ctx, 15*time.Second)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ReactionHandler: handlers.NewReactionHandler(svc, logger, cfg.Server.MaxBodySize),
		MoleculeHandler: handlers.NewMoleculeHandler(infra.Converter, cfg.Server.MaxBodySize),
		HealthHandler: handlers.NewHealthHandler(version, infra.HealthCheckers()...).
			WithObserver(infra.HealthObserver()),
		Logging:          middleware.DefaultLoggingConfig(),
		CORSOrigins:      cfg.Server.CORSAllowedOrigins,
		RateLimit:        middleware.DefaultRateLimitConfig(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		Logger:           logger,
		MetricsCollector: infra.Collector,
		Metrics:          infra.Metrics,
		MetricsPath:      cfg.Metrics.Path,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if err := server.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
		return err
	}
	logger.Info("SynthonScope API server stopped")
	return nil
}

//Personal.AI order the ending
