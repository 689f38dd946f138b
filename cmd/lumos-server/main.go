package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saaga0h/lumos-platform/internal/analytics"
	"github.com/saaga0h/lumos-platform/internal/api"
	"github.com/saaga0h/lumos-platform/internal/clock"
	"github.com/saaga0h/lumos-platform/internal/collector"
	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/internal/store/migrations"
	"github.com/saaga0h/lumos-platform/pkg/config"
	"github.com/saaga0h/lumos-platform/pkg/health"
	"github.com/saaga0h/lumos-platform/pkg/mqtt"
	"github.com/saaga0h/lumos-platform/pkg/observability"
	"github.com/saaga0h/lumos-platform/pkg/postgres"
	"github.com/saaga0h/lumos-platform/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → .env → env → flags
	cfg := config.NewConfig()
	if err := cfg.LoadDotEnv(""); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	settings := cfg.AnalyticsSettings()

	logger.Info("Starting Lumos server",
		"service_name", cfg.ServiceName,
		"store", cfg.StoreBackend,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"api_port", cfg.APIPort,
		"timezone", settings.Location.String(),
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	metrics := observability.NewMetrics()
	checker := health.NewChecker(logger)

	// Initialize event store
	eventStore, closeStore, err := openStore(ctx, cfg, settings, checker, logger)
	if err != nil {
		logger.Error("Failed to open event store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Initialize Redis device status cache
	redisClient := redis.NewClient(cfg, logger)
	defer redisClient.Close()
	statusStore := collector.NewStatusStore(redisClient, logger)
	checker.Register("redis", statusStore.Ping)

	// Virtual time can be switched on over MQTT for end-to-end tests
	timeManager := clock.NewTimeManager(logger)

	// Create collector agent
	mqttClient := mqtt.NewClient(cfg, logger)
	agent := collector.NewAgent(mqttClient, eventStore, statusStore, timeManager, metrics, cfg, logger)
	checker.Register("mqtt", func(ctx context.Context) error {
		if !agent.Connected() {
			return errors.New("mqtt not connected")
		}
		return nil
	})

	aggregator := analytics.NewAggregator(eventStore, timeManager, settings, metrics, logger)

	// Start HTTP servers
	apiServer := api.NewServer(aggregator, eventStore, statusStore, checker, metrics, settings.Location, cfg.CORSOrigins, logger)
	httpServer := startServer("API", cfg.APIPort, apiServer.SetupRoutes(), logger)
	healthServer := startHealthServer(cfg.HealthPort, checker, logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	// Wait for shutdown signal or agent error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", "error", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Lumos server shutdown complete")
}

// openStore builds the configured event store and registers its health probe
func openStore(ctx context.Context, cfg *config.Config, settings analytics.Settings, checker *health.Checker, logger *slog.Logger) (store.EventStore, func(), error) {
	if cfg.StoreBackend == "memory" {
		logger.Warn("Using in-memory event store; events are lost on restart")
		checker.Register("db", nil)
		return store.NewMemoryStore(settings.Location), func() {}, nil
	}

	var pgClient postgres.Client = postgres.NewClient(cfg, logger)

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := pgClient.Connect(connectCtx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pgClient.Migrate(connectCtx, migrations.FS); err != nil {
		pgClient.Disconnect()
		return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}

	checker.Register("db", pgClient.Probe)

	closeFn := func() {
		if err := pgClient.Disconnect(); err != nil {
			logger.Error("Error disconnecting from postgres", "error", err)
		}
	}
	return store.NewPostgresStore(pgClient, settings.Location, logger), closeFn, nil
}

func startServer(name string, port int, handler http.Handler, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "name", name, "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "name", name, "error", err)
		}
	}()

	return server
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())

	return startServer("health", port, mux, logger)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
