package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/saaga0h/lumos-platform/internal/clock"
	"github.com/saaga0h/lumos-platform/internal/simulator"
	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/internal/store/migrations"
	"github.com/saaga0h/lumos-platform/pkg/config"
	"github.com/saaga0h/lumos-platform/pkg/mqtt"
	"github.com/saaga0h/lumos-platform/pkg/postgres"
)

func main() {
	scenarioPath := pflag.String("scenario", "", "Scenario YAML file (defaults: 6h backfill at 40/h, live every 5s)")
	liveMode := pflag.String("live-sink", "mqtt", "Where live events go (mqtt, store)")
	skipBackfill := pflag.Bool("skip-backfill", false, "Do not insert historical events")

	cfg := config.NewConfig()
	cfg.ServiceName = "motion-simulator"
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
	if *liveMode != "mqtt" && *liveMode != "store" {
		fmt.Fprintf(os.Stderr, "Configuration error: invalid live sink %q (must be mqtt or store)\n", *liveMode)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	scenario := simulator.DefaultScenario()
	if *scenarioPath != "" {
		loaded, err := simulator.LoadScenario(*scenarioPath)
		if err != nil {
			logger.Error("Failed to load scenario", "path", *scenarioPath, "error", err)
			os.Exit(1)
		}
		scenario = *loaded
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	settings := cfg.AnalyticsSettings()
	needStore := !*skipBackfill || *liveMode == "store"

	var eventStore store.EventStore
	if needStore {
		if cfg.StoreBackend != "postgres" {
			logger.Error("The simulator writes to the shared postgres store; set LUMOS_STORE_BACKEND=postgres or use --skip-backfill --live-sink=mqtt")
			os.Exit(1)
		}

		pgClient := postgres.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
		err := pgClient.Connect(connectCtx)
		if err == nil {
			err = pgClient.Migrate(connectCtx, migrations.FS)
		}
		connectCancel()
		if err != nil {
			logger.Error("Failed to prepare postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Disconnect()

		eventStore = store.NewPostgresStore(pgClient, settings.Location, logger)
	}

	var backfillSink, liveSink simulator.Sink
	if !*skipBackfill {
		backfillSink = simulator.NewStoreSink(eventStore)
	}

	switch *liveMode {
	case "store":
		liveSink = simulator.NewStoreSink(eventStore)
	case "mqtt":
		mqttClient := mqtt.NewClient(cfg, logger)
		if err := mqttClient.Connect(ctx); err != nil {
			logger.Error("Failed to connect to MQTT broker", "error", err)
			os.Exit(1)
		}
		defer mqttClient.Disconnect()
		liveSink = simulator.NewMQTTSink(mqttClient, cfg.MotionTopic)
	}

	runner := simulator.NewRunner(scenario, backfillSink, liveSink, clock.NewTimeManager(logger), logger)

	logger.Info("Starting motion simulator",
		"run_id", runner.RunID(),
		"scenario", scenario.Name,
		"live_sink", *liveMode,
		"backfill", !*skipBackfill)

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Simulator failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Motion simulator finished")
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
