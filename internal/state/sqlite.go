package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapchart/pkg/core"

	// sqlite driver (pure Go).
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path, migrates it and
// seeds the default fragments on first use. Use ":memory:" for tests.
func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: in-memory databases are per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, path: path, logger: logger.With("state", path)}
	if err := s.seed(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) seed(ctx context.Context) error {
	_, err := s.Setting(ctx, settingSeeded)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, cfg := range core.DefaultChartConfigs {
			if err := putFragment(ctx, tx, cfg); err != nil {
				return err
			}
		}
		s.logger.Info("seeded default fragments", "count", len(core.DefaultChartConfigs))
		return setSetting(ctx, tx, settingSeeded, time.Now().UTC().Format(time.RFC3339))
	})
}

// Fragments implements Store.
func (s *SQLiteStore) Fragments(ctx context.Context) ([]core.ChartConfig, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, config FROM fragments ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fragments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.ChartConfig
	for rows.Next() {
		var cfg core.ChartConfig
		if err := rows.Scan(&cfg.Name, &cfg.Config); err != nil {
			return nil, fmt.Errorf("failed to scan fragment: %w", err)
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

// Fragment implements Store.
func (s *SQLiteStore) Fragment(ctx context.Context, name string) (*Fragment, error) {
	f := &Fragment{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, position, name, config FROM fragments WHERE name = ?`, name,
	).Scan(&f.ID, &f.Position, &f.Name, &f.Config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fragment %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fragment: %w", err)
	}
	return f, nil
}

// PutFragment implements Store.
func (s *SQLiteStore) PutFragment(ctx context.Context, cfg core.ChartConfig) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putFragment(ctx, tx, cfg)
	})
}

// DeleteFragment implements Store.
func (s *SQLiteStore) DeleteFragment(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fragments WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete fragment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("fragment %s: %w", name, ErrNotFound)
	}
	return nil
}

// ReplaceFragments implements Store.
func (s *SQLiteStore) ReplaceFragments(ctx context.Context, cfgs []core.ChartConfig) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fragments`); err != nil {
			return fmt.Errorf("failed to clear fragments: %w", err)
		}
		for _, cfg := range cfgs {
			if err := putFragment(ctx, tx, cfg); err != nil {
				return err
			}
		}
		return nil
	})
}

// FragmentsRevision implements Store. The value changes whenever a
// fragment is added, updated or removed.
func (s *SQLiteStore) FragmentsRevision(ctx context.Context) (string, error) {
	var (
		count  int
		latest sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(updated_at) FROM fragments`,
	).Scan(&count, &latest)
	if err != nil {
		return "", fmt.Errorf("failed to read fragments revision: %w", err)
	}
	return fmt.Sprintf("%d/%s", count, latest.String), nil
}

// Setting implements Store.
func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return value, nil
}

// SetSetting implements Store.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return setSetting(ctx, tx, key, value)
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func putFragment(ctx context.Context, tx *sql.Tx, cfg core.ChartConfig) error {
	if cfg.Name == "" {
		return errors.New("fragment name is required")
	}
	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`UPDATE fragments SET config = ?, updated_at = ? WHERE name = ?`,
		cfg.Config, now, cfg.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update fragment: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fragments (id, name, config, position, created_at, updated_at)
		 VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM fragments), ?, ?)`,
		uuid.New().String(), cfg.Name, cfg.Config, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fragment: %w", err)
	}
	return nil
}

func setSetting(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
