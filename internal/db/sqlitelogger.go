package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// slowStatement is the elapsed time above which a statement is also logged at Warn.
const slowStatement = 250 * time.Millisecond

var errDirectOpen = errors.New("sqlite3-log: use sql.OpenDB(NewLoggingConnector(...)) instead of sql.Open")

// statementConnector opens sqlite3 connections whose statements are logged.
type statementConnector struct {
	dsn    string
	logger *slog.Logger
}

type statementConn struct {
	conn   driver.Conn
	logger *slog.Logger
}

type statementStmt struct {
	stmt   driver.Stmt
	query  string
	logger *slog.Logger
}

// NewLoggingConnector returns a driver.Connector that logs every statement, its
// arguments and its elapsed time at Debug. Use sql.OpenDB(connector).
// If logger is nil, slog.Default() is used.
func NewLoggingConnector(dsn string, logger *slog.Logger) (driver.Connector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &statementConnector{dsn: dsn, logger: logger}, nil
}

func (c *statementConnector) Driver() driver.Driver {
	return directOpenDriver{}
}

func (c *statementConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := (&sqlite3.SQLiteDriver{}).Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &statementConn{conn: conn, logger: c.logger}, nil
}

// directOpenDriver only exists to satisfy driver.Connector.
type directOpenDriver struct{}

func (directOpenDriver) Open(string) (driver.Conn, error) {
	return nil, errDirectOpen
}

func (c *statementConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *statementConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if prep, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err = prep.PrepareContext(ctx, query)
	} else {
		stmt, err = c.conn.Prepare(query)
	}
	if err != nil {
		c.logger.Debug("sql prepare failed", "sql", query, "error", err)
		return nil, err
	}
	return &statementStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

func (c *statementConn) Close() error {
	return c.conn.Close()
}

func (c *statementConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *statementConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginTx, ok := c.conn.(driver.ConnBeginTx); ok {
		return beginTx.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // SA1019 – fallback when underlying conn does not implement ConnBeginTx
	return c.conn.Begin()
}

func (s *statementStmt) Exec(args []driver.Value) (driver.Result, error) {
	defer s.observe("exec", formatValues(args), time.Now())
	//nolint:staticcheck // SA1019 – required when underlying stmt does not implement StmtExecContext
	return s.stmt.Exec(args)
}

func (s *statementStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	defer s.observe("exec", formatNamedValues(args), time.Now())
	if execCtx, ok := s.stmt.(driver.StmtExecContext); ok {
		return execCtx.ExecContext(ctx, args)
	}
	//nolint:staticcheck // SA1019 – fallback when underlying stmt does not implement StmtExecContext
	return s.stmt.Exec(namedToValues(args))
}

func (s *statementStmt) Query(args []driver.Value) (driver.Rows, error) {
	defer s.observe("query", formatValues(args), time.Now())
	//nolint:staticcheck // SA1019 – required when underlying stmt does not implement StmtQueryContext
	return s.stmt.Query(args)
}

func (s *statementStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	defer s.observe("query", formatNamedValues(args), time.Now())
	if queryCtx, ok := s.stmt.(driver.StmtQueryContext); ok {
		return queryCtx.QueryContext(ctx, args)
	}
	//nolint:staticcheck // SA1019 – fallback when underlying stmt does not implement StmtQueryContext
	return s.stmt.Query(namedToValues(args))
}

func (s *statementStmt) Close() error {
	return s.stmt.Close()
}

// NumInput returns -1 (unknown) unless the wrapped statement reports it.
func (s *statementStmt) NumInput() int {
	return s.stmt.NumInput()
}

// observe logs one statement. Query timing covers statement start only; row iteration is not included.
func (s *statementStmt) observe(op string, args []string, start time.Time) {
	elapsed := time.Since(start)
	s.logger.Debug("sql",
		"op", op,
		"sql", s.query,
		"args", args,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	if elapsed > slowStatement {
		s.logger.Warn("slow sql", "op", op, "sql", s.query, "elapsed_ms", elapsed.Milliseconds())
	}
}

func formatValues(args []driver.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = formatArg(a)
	}
	return out
}

func formatNamedValues(args []driver.NamedValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a.Name != "" {
			out[i] = a.Name + "=" + formatArg(a.Value)
		} else {
			out[i] = formatArg(a.Value)
		}
	}
	return out
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i := range args {
		out[i] = args[i].Value
	}
	return out
}

func formatArg(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}
