package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"riego/internal/config"
	db "riego/internal/db"
	"riego/internal/migrate"

	_ "github.com/mattn/go-sqlite3"
)

const usage = `usage: %s <command>
  migrate  apply pending schema migrations
  status   list applied migration versions
`

func main() {
	dbPath := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if dbPath == "" {
		dbPath = "../dev/sqlite/riego.db"
	}
	dbPath = filepath.Clean(dbPath)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	conn, err := db.Open(config.Config{
		SQLiteDriver:       "sqlite3",
		SQLitePath:         dbPath,
		SQLiteMaxOpenConns: 1,
		SQLiteMaxIdleConns: 1,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	if err := run(context.Background(), os.Args[1], conn, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, conn *sql.DB, out io.Writer) error {
	switch command {
	case "migrate":
		if err := migrate.Run(ctx, conn); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations applied")
		return nil
	case "status":
		applied, err := migrate.AppliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		versions := make([]string, 0, len(applied))
		for v := range applied {
			versions = append(versions, v)
		}
		slices.Sort(versions)
		if len(versions) == 0 {
			fmt.Fprintln(out, "no migrations applied")
			return nil
		}
		for _, v := range versions {
			fmt.Fprintln(out, v)
		}
		return nil
	default:
		return fmt.Errorf("unknown command")
	}
}
