package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Execute runs the command line of a service binary and returns its exit
// code.
func Execute(service config.Service) int {
	if err := NewServiceCommand(service).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewServiceCommand returns the root command of service's binary. Without
// a subcommand it serves until SIGINT or SIGTERM.
func NewServiceCommand(service config.Service) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           string(service) + "-service",
		Short:         fmt.Sprintf("Run the blog %s service", service),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), service, configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(service, configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s service configuration is valid (listen %s, database %s)\n",
				service, cfg.Server.Addr(), cfg.Database.Driver)
			return nil
		},
	})

	return root
}

func serve(ctx context.Context, service config.Service, configPath string) error {
	cfg, err := config.Load(service, configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging, service)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting blog service")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize service")
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release resources")
		}
	}()

	return a.Run(ctx)
}
