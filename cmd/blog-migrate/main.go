// Package main is the entry point for the blog database migration tool.
// It applies the embedded schema of one service to that service's own
// PostgreSQL or SQLite database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/logging"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository/migrations"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	service    string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "blog-migrate",
		Short: "Manage the database schema of a blog service",
		Long: `Manage the database schema of a blog service.

Each service owns its database; --service selects which schema to work on.
Connection settings come from the service's configuration file and the
same environment variables the service reads (POSTS_DB_HOST, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.service, "service", "s", "", "service whose schema to manage: auth, posts or comments")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), opts, func(m *migrate.Migrate) error {
					if err := migrations.Up(m); err != nil {
						return err
					}
					return printStatus(cmd, opts, m)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), opts, func(m *migrate.Migrate) error {
					if err := migrations.Down(m); err != nil {
						return err
					}
					return printStatus(cmd, opts, m)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd.Context(), opts, func(m *migrate.Migrate) error {
					return printStatus(cmd, opts, m)
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Force set the migration version and clear the dirty flag (use with caution)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return withMigrator(cmd.Context(), opts, func(m *migrate.Migrate) error {
					if err := m.Force(version); err != nil {
						return fmt.Errorf("failed to force version: %w", err)
					}
					return printStatus(cmd, opts, m)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Blog Migration Tool\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n",
					Version, BuildTime, GitCommit)
			},
		},
	)

	return root
}

// withMigrator opens the selected service's database, runs fn and closes
// everything again.
func withMigrator(ctx context.Context, opts *options, fn func(*migrate.Migrate) error) error {
	service := config.Service(opts.service)
	if !service.Valid() {
		return errors.New("--service must be one of: auth, posts, comments")
	}

	dbCfg, err := config.LoadDatabase(service, opts.configPath)
	if err != nil {
		return err
	}

	logger := logging.New(config.LoggingConfig{Level: "warn", Format: "console"}, service)

	m, closeFn, err := openMigrator(ctx, service, dbCfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(m)
}

func openMigrator(ctx context.Context, service config.Service, dbCfg config.DatabaseConfig, logger zerolog.Logger) (*migrate.Migrate, func(), error) {
	if dbCfg.IsEmbedded() {
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFrom(dbCfg), logger)
		if err != nil {
			return nil, nil, err
		}
		m, err := migrations.NewSQLite(db.DB(), service)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		// Closing m closes the underlying handle as well.
		return m, func() { _, _ = m.Close() }, nil
	}

	m, err := migrations.NewPostgres(dbCfg.URL(), service)
	if err != nil {
		return nil, nil, err
	}
	return m, func() { _, _ = m.Close() }, nil
}

func printStatus(cmd *cobra.Command, opts *options, m *migrate.Migrate) error {
	version, dirty, err := migrations.Status(m)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d (%s)\n", opts.service, version, state)
	return nil
}
