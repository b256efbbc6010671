package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"riego/internal/config"
	"riego/internal/logging"
	"riego/internal/mqtt"
	"riego/internal/simulator"

	"github.com/joho/godotenv"
)

var version = "dev"
var appName = "riego-simulator"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "env file error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadSimulatorFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.AppEnv, cfg.LogLevel, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"device_id", cfg.DeviceID,
		"interval", cfg.Interval,
		"count", cfg.Count,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.SimulatorConfig) error {
	publisher := mqtt.NewPublisher(mqtt.Options{
		Broker:   cfg.MQTTBroker,
		Port:     cfg.MQTTPort,
		ClientID: cfg.MQTTClientID,
	}, slog.Default().With("component", "mqtt"))
	if err := publisher.Connect(ctx); err != nil {
		return err
	}
	defer publisher.Disconnect()

	// Each device gets its own reproducible series.
	h := fnv.New64a()
	_, _ = h.Write([]byte(cfg.DeviceID))

	return simulator.Run(ctx, simulator.Options{
		DeviceID: cfg.DeviceID,
		Interval: cfg.Interval,
		Count:    cfg.Count,
		Seed:     h.Sum64(),
	}, publisher)
}
