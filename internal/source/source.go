// Package source runs the queries whose results feed charts. It wraps a
// database/sql connection to DuckDB, SQLite or PostgreSQL and converts rows
// into core.ResultSet snapshots.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/leapchart/pkg/core"

	// database/sql drivers.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// sqlDrivers maps a configured driver to its database/sql registration.
var sqlDrivers = map[string]string{
	DriverDuckDB:   "duckdb",
	DriverSQLite:   "sqlite",
	DriverPostgres: "pgx",
}

// Drivers returns the supported driver names, sorted.
func Drivers() []string {
	names := make([]string, 0, len(sqlDrivers))
	for name := range sqlDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config selects the database to query.
type Config struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// UnknownDriverError is returned for an unsupported driver name.
type UnknownDriverError struct {
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown source driver %q (available: %s)", e.Driver, strings.Join(Drivers(), ", "))
}

// Source runs queries against one database.
type Source struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// Open connects to the database described by cfg. An empty DuckDB or
// SQLite DSN opens an in-memory database.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Source, error) {
	name, ok := sqlDrivers[cfg.Driver]
	if !ok {
		return nil, &UnknownDriverError{Driver: cfg.Driver}
	}

	dsn := cfg.DSN
	if dsn == "" && cfg.Driver == DriverSQLite {
		dsn = ":memory:"
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}
	if cfg.Driver != DriverPostgres {
		// Embedded engines: keep in-memory databases on one connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	return New(db, cfg.Driver, logger), nil
}

// New wraps an open database handle.
func New(db *sql.DB, driver string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{db: db, driver: driver, logger: logger.With("driver", driver)}
}

// Driver returns the configured driver name.
func (s *Source) Driver() string { return s.driver }

// DB returns the underlying handle.
func (s *Source) DB() *sql.DB { return s.db }

// Close closes the connection.
func (s *Source) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exec runs a statement that returns no rows.
func (s *Source) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Query runs query and returns its complete result.
func (s *Source) Query(ctx context.Context, query string, args ...any) (*core.ResultSet, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rs, err := Scan(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("query finished", "rows", rs.Len(), "columns", len(rs.Columns), "duration", time.Since(start))
	return rs, nil
}

// Scan reads all remaining rows into a ResultSet.
func Scan(rows *sql.Rows) (*core.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	rs := &core.ResultSet{Columns: cols, Rows: []core.Row{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(core.Row, len(cols))
		for i, col := range cols {
			row[col] = Normalize(values[i])
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return rs, nil
}

// tablesQuery lists user tables and views per driver.
var tablesQuery = map[string]string{
	DriverSQLite: `SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`,
	DriverDuckDB: `SELECT table_name FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_name`,
	DriverPostgres: `SELECT table_name FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'pg_catalog')
		ORDER BY table_name`,
}

// Tables returns the names of the tables and views visible to the source.
func (s *Source) Tables(ctx context.Context) ([]string, error) {
	query, ok := tablesQuery[s.driver]
	if !ok {
		return nil, &UnknownDriverError{Driver: s.driver}
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing tables: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
