// Command clif-c-of computes the CLIF-C OF score and ACLF grade from the
// command line, keeps an evaluation history and serves both over MCP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/clif-c-of-mcp-server/internal/cache"
	"github.com/clif-c-of-mcp-server/internal/config"
	"github.com/clif-c-of-mcp-server/internal/domain"
	"github.com/clif-c-of-mcp-server/internal/history"
	"github.com/clif-c-of-mcp-server/internal/logging"
	"github.com/clif-c-of-mcp-server/internal/service"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	logLevel   string
	dataDir    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "clif-c-of",
		Short:        "CLIF-C OF organ failure score and ACLF grade calculator",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: config.yaml in ., ./config, the data dir or /etc/clif-c-of)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory override")

	rootCmd.AddCommand(calculateCmd(flags))
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(historyCmd(flags))
	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(setupCmd(flags))
	rootCmd.AddCommand(migrateCmd(flags))

	return rootCmd
}

// app carries what every command needs once configuration is loaded.
type app struct {
	config *domain.Config
	logger *logrus.Logger
	closer io.Closer
}

// loadApp reads configuration, applies flag overrides and builds the logger.
func loadApp(flags *globalFlags) (*app, error) {
	manager, err := config.NewManager(flags.configFile)
	if err != nil {
		return nil, err
	}
	cfg := manager.GetConfig()

	if flags.dataDir != "" {
		// the sqlite file follows an overridden data dir unless it was set explicitly
		if cfg.History.SQLitePath == config.HistoryDBPath(cfg.DataDir) {
			cfg.History.SQLitePath = config.HistoryDBPath(flags.dataDir)
		}
		cfg.DataDir = flags.dataDir
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	// cfg is the manager's own config, so the overrides above are validated too
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"config_file": manager.ConfigFileUsed(),
		"data_dir":    cfg.DataDir,
		"backend":     cfg.History.Backend,
	}).Debug("Configuration loaded")

	return &app{config: cfg, logger: logger, closer: closer}, nil
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log output: %v\n", err)
	}
}

// calculator builds the calculator service with the configured result cache.
func (a *app) calculator() *service.CalculatorService {
	if !a.config.Cache.Enabled {
		return service.NewCalculatorService(a.logger, nil)
	}
	return service.NewCalculatorService(a.logger, cache.NewResultCache(a.config.Cache))
}

// openHistory opens the configured history store, creating the data
// directory for file-backed storage.
func (a *app) openHistory(ctx context.Context) (*history.Store, error) {
	if err := config.EnsureDataDir(a.config.DataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return history.Open(ctx, a.config.History, a.logger)
}

// closeHistory closes store, logging rather than returning the error.
func (a *app) closeHistory(store *history.Store) {
	if err := store.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close history store")
	}
}
