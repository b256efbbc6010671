package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"riego/internal/config"
	db "riego/internal/db"
	httpapi "riego/internal/httpapi"
	"riego/internal/migrate"
	dashboard "riego/internal/modules/dashboard"
	dashboardviews "riego/internal/modules/dashboard/views"
	readings "riego/internal/modules/readings"
	"riego/internal/mqtt"
	"riego/internal/observability"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"hostAPI", cfg.HostAPI,
		"hostAPITimeout", cfg.HostAPITimeout,
		"dashboardDates", cfg.DashboardDates,
		"dashboardDefaultDate", cfg.DashboardDefaultDate,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"mqttEnabled", cfg.MQTTEnabled,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
	)
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn); err != nil {
		return err
	}

	var ok int
	err = dbConn.QueryRowContext(ctx, `SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	if err := dashboardviews.LoadTemplates(); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	state := &dashboard.StateHolder{}
	mux := httpapi.NewMux(dbConn, cfg.StaticDir, metrics, state)

	// Handlers are set before Connect so the OnConnect subscription never
	// delivers to a nil handler.
	var subscriber *mqtt.Subscriber
	if cfg.MQTTEnabled {
		subscriber = mqtt.NewSubscriber(mqtt.Options{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
		}, slog.Default().With("component", "mqtt"))
		readings.RegisterFeature(mux, dbConn, subscriber, metrics)
	} else {
		readings.RegisterFeature(mux, dbConn, nil, metrics)
	}

	client := &http.Client{Timeout: cfg.HostAPITimeout}
	pipeline := dashboard.RegisterFeature(mux, dbConn, state, cfg.HostAPI, client, metrics)

	if subscriber != nil {
		// Short timeout so a missing broker does not hold up startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		defer func() {
			slog.Info("mqtt disconnecting")
			subscriber.Disconnect()
		}()
	}

	srv := httpapi.NewServer(cfg, httpapi.Wrap(mux, metrics))

	// Bind before the initial load: HOST_API may point back at this process.
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	initialState, err := dashboard.Initialize(ctx, pipeline, cfg.DashboardDefaultDate, cfg.DashboardDates)
	if err != nil {
		if shutdownErr := shutdown(srv, errCh); shutdownErr != nil {
			slog.Error("http shutdown", "error", shutdownErr)
		}
		return err
	}
	state.Set(initialState)
	slog.Info("dashboard ready",
		"date", initialState.DefaultDate,
		"rows", initialState.Initial.RowCount,
		"quarantined", initialState.Initial.Quarantined,
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	if err := shutdown(srv, errCh); err != nil {
		return err
	}
	return ctx.Err()
}

func shutdown(srv *http.Server, errCh <-chan error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
