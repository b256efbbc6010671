package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"riego/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// pragmas are appended to every path-based DSN unless the path already sets them.
var pragmas = []struct{ key, value string }{
	{"_foreign_keys", "on"},
	{"_busy_timeout", "5000"},
	{"_journal_mode", "WAL"},
}

// Open connects to the readings store and pings it. With SQLITE_LOG_STATEMENTS
// the sqlite3 driver is wrapped so every statement is logged.
func Open(cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := connect(cfg, dsn)
	if err != nil {
		return nil, err
	}
	tunePool(conn, cfg)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return conn, nil
}

func Close(conn *sql.DB) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func connect(cfg config.Config, dsn string) (*sql.DB, error) {
	if !cfg.SQLiteLogStatements || cfg.SQLiteDriver != "sqlite3" {
		conn, err := sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		return conn, nil
	}
	connector, err := NewLoggingConnector(dsn, slog.Default().With("component", "sqlite"))
	if err != nil {
		return nil, fmt.Errorf("db connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// tunePool applies the configured limits. The defaults keep a single
// writer connection.
func tunePool(conn *sql.DB, cfg config.Config) {
	if cfg.SQLiteMaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		conn.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}
}

// buildDSN turns SQLITE_PATH into a file: URI carrying the pragmas, creating
// the parent directory of file-backed databases. SQLITE_DSN is used verbatim.
func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	base, query, _ := strings.Cut(strings.TrimPrefix(cfg.SQLitePath, "file:"), "?")
	if err := ensureDir(base); err != nil {
		return "", err
	}

	params := []string{}
	if query != "" {
		params = append(params, query)
	}
	for _, p := range pragmas {
		if hasParam(query, p.key) {
			continue
		}
		params = append(params, p.key+"="+p.value)
	}
	return "file:" + base + "?" + strings.Join(params, "&"), nil
}

func ensureDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

func hasParam(query, key string) bool {
	for _, kv := range strings.Split(query, "&") {
		if k, _, _ := strings.Cut(kv, "="); k == key {
			return true
		}
	}
	return false
}
