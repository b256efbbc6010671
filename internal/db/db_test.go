package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"riego/internal/config"
)

func TestOpen_fileBackedWithStatementLogging(t *testing.T) {
	cfg := config.Config{
		SQLiteDriver:        "sqlite3",
		SQLitePath:          filepath.Join(t.TempDir(), "nested", "riego.db"),
		SQLiteMaxOpenConns:  1,
		SQLiteMaxIdleConns:  1,
		SQLiteLogStatements: true,
	}
	conn, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() {
		if err := Close(conn); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()

	var mode string
	if err := conn.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q; want wal", mode)
	}
}

func TestBuildDSN(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  config.Config{SQLiteDSN: "file::memory:?cache=shared", SQLitePath: "ignored.db"},
			want: "file::memory:?cache=shared",
		},
		{
			name: "plain path",
			cfg:  config.Config{SQLitePath: filepath.Join(dir, "a.db")},
			want: "file:" + filepath.Join(dir, "a.db") + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "path query overrides a pragma",
			cfg:  config.Config{SQLitePath: filepath.Join(dir, "c.db") + "?_journal_mode=DELETE"},
			want: "file:" + filepath.Join(dir, "c.db") + "?_journal_mode=DELETE&_foreign_keys=on&_busy_timeout=5000",
		},
		{
			name: "memory database",
			cfg:  config.Config{SQLitePath: ":memory:"},
			want: "file::memory:?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
		{
			name: "file uri with query",
			cfg:  config.Config{SQLitePath: "file:" + filepath.Join(dir, "b.db") + "?mode=rwc"},
			want: "file:" + filepath.Join(dir, "b.db") + "?mode=rwc&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildDSN(tt.cfg)
			if err != nil {
				t.Fatalf("buildDSN: %v", err)
			}
			if got != tt.want {
				t.Errorf("buildDSN = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestOpen_createsParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "riego.db")
	conn, err := Open(config.Config{SQLiteDriver: "sqlite3", SQLitePath: path, SQLiteMaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(conn)

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
	var fk int
	if err := conn.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d; want 1", fk)
	}
}

func TestOpen_unknownDriver(t *testing.T) {
	_, err := Open(config.Config{SQLiteDriver: "nope", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	if err == nil || !strings.Contains(err.Error(), "db open") {
		t.Errorf("Open = %v; want db open error", err)
	}
}

func TestClose_nil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Errorf("Close(nil) = %v; want nil", err)
	}
}
