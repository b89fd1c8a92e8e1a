// Package sqlite provides SQLite repositories for embedded deployments and
// tests. It uses modernc.org/sqlite, a pure Go SQLite implementation that
// doesn't require CGO.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository/migrations"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeLayout stores timestamps as fixed-width UTC text so that ORDER BY on
// the column sorts chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Config holds SQLite connection settings.
type Config struct {
	// Path is the path to the SQLite database file.
	// Use MemoryPath for an in-memory database.
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	MaxOpenConns int

	// ConnMaxLifetime sets the maximum connection lifetime.
	ConnMaxLifetime time.Duration

	// JournalMode sets the SQLite journal mode (WAL recommended for concurrency).
	JournalMode string

	// BusyTimeout sets the busy timeout in milliseconds.
	BusyTimeout int

	// CacheSize sets the page cache size (negative = KB, positive = pages).
	CacheSize int

	// SynchronousMode sets the synchronous mode (NORMAL, FULL, OFF).
	SynchronousMode string
}

// DefaultConfig returns a default SQLite configuration.
func DefaultConfig(dbPath string) Config {
	return Config{
		Path:            dbPath,
		MaxOpenConns:    1, // SQLite works best with single writer
		ConnMaxLifetime: time.Hour,
		JournalMode:     "WAL",
		BusyTimeout:     5000,  // 5 seconds
		CacheSize:       -2000, // 2MB
		SynchronousMode: "NORMAL",
	}
}

// ConfigFrom converts the shared database configuration.
func ConfigFrom(cfg config.DatabaseConfig) Config {
	c := DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		c.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		c.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.CacheSize != 0 {
		c.CacheSize = cfg.CacheSize
	}
	if cfg.SynchronousMode != "" {
		c.SynchronousMode = cfg.SynchronousMode
	}
	return c
}

// DB wraps a sql.DB connection for SQLite.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
	path   string
}

// NewDB creates a new SQLite database connection.
func NewDB(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, so the single
	// connection must never be recycled.
	maxConns := cfg.MaxOpenConns
	lifetime := cfg.ConnMaxLifetime
	if cfg.Path == MemoryPath {
		maxConns = 1
		lifetime = 0
	}
	if maxConns < 1 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.Info().
		Str("path", cfg.Path).
		Str("journal_mode", cfg.JournalMode).
		Int("max_conns", maxConns).
		Msg("connected to SQLite database")

	return &DB{
		db:     db,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// dsn builds a modernc connection string with one _pragma per setting.
func dsn(cfg Config) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	if cfg.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout))
	}
	if cfg.Path != MemoryPath && cfg.JournalMode != "" {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", cfg.JournalMode))
	}
	if cfg.CacheSize != 0 {
		q.Add("_pragma", fmt.Sprintf("cache_size(%d)", cfg.CacheSize))
	}
	if cfg.SynchronousMode != "" {
		q.Add("_pragma", fmt.Sprintf("synchronous(%s)", cfg.SynchronousMode))
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.logger.Info().Msg("closing SQLite connection")
	return db.db.Close()
}

// DB returns the underlying sql.DB.
func (db *DB) DB() *sql.DB {
	return db.db
}

// ExecContext executes a query without returning rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// Migrate applies the embedded schema of service.
func (db *DB) Migrate(service config.Service) error {
	m, err := migrations.NewSQLite(db.db, service)
	if err != nil {
		return err
	}
	// Closing m would close db.db as well, so it is left open.
	if err := migrations.Up(m); err != nil {
		return err
	}

	version, _, err := m.Version()
	if err == nil {
		db.logger.Info().Uint("version", version).Str("schema", string(service)).Msg("schema up to date")
	}
	return nil
}

// formatTime renders t in the column layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a column written by formatTime.
func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
