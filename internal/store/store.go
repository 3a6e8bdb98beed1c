package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/ccstats/internal/row"
)

// Supported database/sql driver names.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite3"
)

// Options configures how the embedded engine is opened.
type Options struct {
	// Driver is DriverDuckDB (default) or DriverSQLite.
	Driver string

	// DSN is passed to sql.Open. Empty means an in-memory database.
	DSN string

	// Threads caps DuckDB worker threads. Zero keeps the engine default.
	Threads int

	// MemoryLimit is a DuckDB memory_limit value such as "2GB".
	MemoryLimit string
}

// Conn is one live connection to the embedded analytical engine.
//
// The engine connection is not safe for concurrent use by two logical
// operations. Conn does not serialize callers itself; that is the job of the
// coordinator that owns it.
type Conn struct {
	db     *sql.DB
	conn   *sql.Conn
	driver string
}

// Open creates the engine instance and pins a single connection to it.
//
// The pool is limited to one connection so that engine state created by one
// statement (temp tables, settings) is visible to the next.
func Open(ctx context.Context, opts Options) (*Conn, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverDuckDB
	}
	dsn := opts.DSN
	if dsn == "" && driver == DriverSQLite {
		dsn = ":memory:"
	}

	switch driver {
	case DriverDuckDB, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	if err := applySettings(ctx, conn, driver, opts); err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("failed to apply settings: %w", err)
	}

	return &Conn{db: db, conn: conn, driver: driver}, nil
}

// Driver returns the driver name the connection was opened with.
func (c *Conn) Driver() string {
	return c.driver
}

// Query runs one statement and returns every result row. Statements with no
// result set return an empty slice.
func (c *Conn) Query(ctx context.Context, query string) ([]row.Row, error) {
	if c.conn == nil {
		return nil, sql.ErrConnDone
	}

	rows, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := make([]row.Row, 0)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(result), err)
		}
		r := make(row.Row, len(cols))
		for i, col := range cols {
			r[col] = row.FromDriver(vals[i])
			vals[i] = nil
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Close releases the connection and the engine instance. Safe to call more
// than once.
func (c *Conn) Close() error {
	var errs []error
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		c.conn = nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		c.db = nil
	}
	return errors.Join(errs...)
}

// applySettings configures the engine for the connection's lifetime.
func applySettings(ctx context.Context, conn *sql.Conn, driver string, opts Options) error {
	var stmts []string
	switch driver {
	case DriverDuckDB:
		if opts.Threads > 0 {
			stmts = append(stmts, fmt.Sprintf("SET threads = %d", opts.Threads))
		}
		if opts.MemoryLimit != "" {
			stmts = append(stmts, fmt.Sprintf("SET memory_limit = '%s'", escapeLiteral(opts.MemoryLimit)))
		}
	case DriverSQLite:
		stmts = append(stmts,
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		)
	}

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

// escapeLiteral doubles single quotes for use inside a SQL string literal.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
