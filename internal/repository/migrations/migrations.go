// Package migrations embeds the versioned schema of every service and
// applies it with golang-migrate. Each service has its own migration set
// per database driver.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
)

//go:embed postgres sqlite
var files embed.FS

// dir returns the embedded directory holding driver's migrations for service.
func dir(driver string, service config.Service) string {
	return driver + "/" + string(service)
}

// NewPostgres returns a migrator for service against the PostgreSQL
// database at databaseURL. The caller must Close it.
func NewPostgres(databaseURL string, service config.Service) (*migrate.Migrate, error) {
	source, err := iofs.New(files, dir("postgres", service))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// NewSQLite returns a migrator for service on an open SQLite handle.
// Closing the migrator closes db as well.
func NewSQLite(db *sql.DB, service config.Service) (*migrate.Migrate, error) {
	source, err := iofs.New(files, dir("sqlite", service))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// Up applies every pending migration. Being already current is not an error.
func Up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func Down(m *migrate.Migrate) error {
	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, fs.ErrNotExist) {
			return ErrNothingToRollBack
		}
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// ErrNothingToRollBack is returned by Down on an empty schema.
var ErrNothingToRollBack = errors.New("no migration to roll back")

// Status reports the applied version. A schema with no migrations applied
// reports version 0.
func Status(m *migrate.Migrate) (version uint, dirty bool, err error) {
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
