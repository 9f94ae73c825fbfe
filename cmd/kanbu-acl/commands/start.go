package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kanbu/kanbu-acl/cmd/kanbu-acl/cmdutil"
	"github.com/kanbu/kanbu-acl/internal/logger"
	"github.com/kanbu/kanbu-acl/internal/telemetry"
	"github.com/kanbu/kanbu-acl/pkg/authz"
	"github.com/kanbu/kanbu-acl/pkg/config"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/api"
	"github.com/kanbu/kanbu-acl/pkg/controlplane/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the kanbu-acl API server",
	Long: `Start the kanbu-acl admin API in the foreground.

The server runs until SIGINT or SIGTERM. When metrics are enabled a
Prometheus endpoint is served on its own port. Edits to the log level in
the configuration file take effect without a restart.

Examples:
  # Start with the default config file
  kanbu-acl start

  # Start with a custom config file
  kanbu-acl start --config /etc/kanbu-acl/config.yaml

  # Override settings through the environment
  KANBU_ACL_LOGGING_LEVEL=DEBUG kanbu-acl start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	configFile := cmdutil.Flags.ConfigFile
	cfg, err := config.MustLoad(configFile)
	if err != nil {
		return err
	}

	if err := cmdutil.InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdutil.Context(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.ServiceVersion == "" || cfg.Telemetry.ServiceVersion == "dev" {
		cfg.Telemetry.ServiceVersion = Version
	}

	telemetryShutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Error("Telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("Profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting kanbu-acl", "version", Version, "commit", Commit)
	logger.Info("Configuration loaded", "source", configSource(configFile))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if cfg.Telemetry.Profiling.Enabled {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	}

	cpStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize ACL store: %w", err)
	}
	defer func() { _ = cpStore.Close() }()
	storeAttrs := []any{logger.KeyStoreType, cfg.Database.Type}
	if cfg.Database.Type == store.DatabaseTypeSQLite {
		storeAttrs = append(storeAttrs, logger.KeyPathDB, cfg.Database.SQLite.Path)
	}
	logger.Info("ACL store opened", storeAttrs...)

	metricsResult := config.InitializeMetrics(cfg)
	var opts []authz.Option
	if metricsResult.Registry != nil {
		opts = append(opts, authz.WithMetrics(authz.NewMetrics(metricsResult.Registry)))
	}
	svc := authz.NewFromStore(cpStore, clock.WallClock, opts...)

	apiServer, err := api.NewServer(cfg.ControlPlane, svc, cpStore)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	if path := watchedConfigPath(configFile); path != "" {
		if err := config.Watch(path, config.ApplyRuntime); err != nil {
			logger.Warn("Configuration hot reload disabled", logger.Err(err))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return apiServer.Start(gctx) })
	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		g.Go(func() error { return metricsResult.Server.Start(gctx) })
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	if err := g.Wait(); err != nil {
		logger.Error("Server error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// configSource describes where the configuration came from.
func configSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}

// watchedConfigPath returns the file to watch, or "" when running on defaults.
func watchedConfigPath(configFile string) string {
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			return configFile
		}
		return ""
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return ""
}
