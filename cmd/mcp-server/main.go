// Command mcp-server runs the CLIF-C OF calculator as a stdio MCP server,
// configured from config.yaml and CLIF_* environment variables only.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clif-c-of-mcp-server/internal/cache"
	"github.com/clif-c-of-mcp-server/internal/config"
	"github.com/clif-c-of-mcp-server/internal/history"
	"github.com/clif-c-of-mcp-server/internal/logging"
	"github.com/clif-c-of-mcp-server/internal/mcp"
	"github.com/clif-c-of-mcp-server/internal/service"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager(os.Getenv(config.EnvPrefix + "_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	// stdout carries the MCP protocol
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	if err := config.EnsureDataDir(cfg.DataDir); err != nil {
		logger.WithError(err).Fatal("Failed to create data directory")
	}
	store, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open history")
	}
	defer store.Close()

	var resultCache service.ResultCache
	if cfg.Cache.Enabled {
		resultCache = cache.NewResultCache(cfg.Cache)
	}

	server, err := mcp.NewServer(cfg.MCP, service.NewCalculatorService(logger, resultCache), logger,
		mcp.WithHistory(store),
		mcp.WithExportDir(config.ExportDir(cfg.DataDir)),
	)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create MCP server")
	}

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		return
	}

	logger.Info("CLIF-C OF MCP server stopped")
}
