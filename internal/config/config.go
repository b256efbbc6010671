package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

var defaultDashboardDates = []string{
	"2022-08-22",
	"2022-08-23",
	"2022-08-24",
	"2022-08-25",
	"2022-08-26",
}

const defaultDashboardDate = "2022-08-23"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StaticDir is the absolute path to the directory served at /static/.
	// Set via STATIC_DIR (relative paths are resolved against the process working directory at startup).
	StaticDir string

	// HostAPI is the base URL of the telemetry API the dashboard reads from.
	HostAPI        string
	HostAPITimeout time.Duration

	// DashboardDates are the selectable dates, in display order.
	DashboardDates       []string
	DashboardDefaultDate string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogStatements   bool

	MQTTEnabled  bool
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

func LoadFromEnv() (Config, error) {
	appEnv, level, err := loadCommon()
	if err != nil {
		return Config{}, err
	}

	httpAddr := envOr("HTTP_ADDR", ":8080")

	staticDir, err := filepath.Abs(envOr("STATIC_DIR", "static"))
	if err != nil {
		return Config{}, fmt.Errorf("STATIC_DIR %q: %w", staticDir, err)
	}

	hostAPI := strings.TrimRight(strings.TrimSpace(os.Getenv("HOST_API")), "/")
	if hostAPI == "" {
		return Config{}, fmt.Errorf("HOST_API is required")
	}
	if !strings.HasPrefix(hostAPI, "http://") && !strings.HasPrefix(hostAPI, "https://") {
		return Config{}, fmt.Errorf("invalid HOST_API %q (expected http:// or https:// URL)", hostAPI)
	}

	hostAPITimeout, err := parseDuration("HOST_API_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	if hostAPITimeout < 0 {
		return Config{}, fmt.Errorf("HOST_API_TIMEOUT must not be negative, got %v", hostAPITimeout)
	}

	dates := parseList(os.Getenv("DASHBOARD_DATES"))
	if len(dates) == 0 {
		dates = slices.Clone(defaultDashboardDates)
	}
	defaultDate := envOr("DASHBOARD_DEFAULT_DATE", defaultDashboardDate)
	if !slices.Contains(dates, defaultDate) {
		return Config{}, fmt.Errorf("DASHBOARD_DEFAULT_DATE %q is not one of DASHBOARD_DATES %v", defaultDate, dates)
	}

	driver := envOr("DB_DRIVER", "sqlite3")
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := envOr("SQLITE_PATH", "../dev/sqlite/riego.db")

	maxOpenConns, err := parseInt("DB_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt("DB_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := parseDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}
	logStatements, err := parseBool("DB_LOG_SQL", "false")
	if err != nil {
		return Config{}, err
	}

	mqttEnabled, err := parseBool("MQTT_ENABLED", "true")
	if err != nil {
		return Config{}, err
	}
	broker, port, err := loadMQTTBroker()
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		StaticDir:             staticDir,
		HostAPI:               hostAPI,
		HostAPITimeout:        hostAPITimeout,
		DashboardDates:        dates,
		DashboardDefaultDate:  defaultDate,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogStatements:   logStatements,
		MQTTEnabled:           mqttEnabled,
		MQTTBroker:            broker,
		MQTTPort:              port,
		MQTTClientID:          envOr("MQTT_CLIENT_ID", "riego-server"),
		MQTTTopic:             envOr("MQTT_TOPIC", "riego/+/telemetry"),
	}, nil
}

// SimulatorConfig configures cmd/simulator.
type SimulatorConfig struct {
	AppEnv       string
	LogLevel     slog.Level
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	DeviceID string
	Interval time.Duration
	// Count is the number of readings to publish; 0 publishes until stopped.
	Count int
}

func LoadSimulatorFromEnv() (SimulatorConfig, error) {
	appEnv, level, err := loadCommon()
	if err != nil {
		return SimulatorConfig{}, err
	}
	broker, port, err := loadMQTTBroker()
	if err != nil {
		return SimulatorConfig{}, err
	}

	interval, err := parseDuration("SIM_INTERVAL", "1s")
	if err != nil {
		return SimulatorConfig{}, err
	}
	if interval <= 0 {
		return SimulatorConfig{}, fmt.Errorf("SIM_INTERVAL must be positive, got %v", interval)
	}

	count, err := parseInt("SIM_COUNT", "0")
	if err != nil {
		return SimulatorConfig{}, err
	}
	if count < 0 {
		return SimulatorConfig{}, fmt.Errorf("SIM_COUNT must not be negative, got %d", count)
	}

	deviceID := envOr("SIM_DEVICE_ID", "parcela-01")
	if strings.ContainsAny(deviceID, "/+#") {
		return SimulatorConfig{}, fmt.Errorf("invalid SIM_DEVICE_ID %q (must not contain /, + or #)", deviceID)
	}

	return SimulatorConfig{
		AppEnv:       appEnv,
		LogLevel:     level,
		MQTTBroker:   broker,
		MQTTPort:     port,
		MQTTClientID: envOr("MQTT_CLIENT_ID", "riego-simulator"),
		DeviceID:     deviceID,
		Interval:     interval,
		Count:        count,
	}, nil
}

func loadCommon() (string, slog.Level, error) {
	appEnv := envOr("APP_ENV", "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return "", slog.LevelInfo, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return "", slog.LevelInfo, err
	}
	return appEnv, level, nil
}

func loadMQTTBroker() (string, int, error) {
	broker := envOr("MQTT_BROKER", "localhost")
	port, err := parseInt("MQTT_PORT", "1883")
	if err != nil {
		return "", 0, err
	}
	if port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid MQTT_PORT %d (must be 1-65535)", port)
	}
	return broker, port, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func parseInt(key, def string) (int, error) {
	s := envOr(key, def)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOr(key, def)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseBool(key, def string) (bool, error) {
	s := envOr(key, def)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || slices.Contains(out, part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
