// Package mcp exposes the CLIF-C OF calculator and its evaluation history as
// MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/clif-c-of-mcp-server/internal/domain"
	"github.com/clif-c-of-mcp-server/internal/history"
)

// HistoryStore is the part of the evaluation history the tools use.
type HistoryStore interface {
	Add(ctx context.Context, result *domain.DiagnosisResult) domain.HistoryEntry
	Get(id string) (domain.HistoryEntry, bool)
	List() []domain.HistoryEntry
	Remove(ctx context.Context, id string) bool
	Clear(ctx context.Context)
	Len() int
	MaxEntries() int
	ExportJSON(writer io.Writer) error
	ImportJSON(ctx context.Context, reader io.Reader) (int, int, error)
}

// Server is the CLIF-C OF MCP server
type Server struct {
	config     domain.MCPConfig
	mcpServer  *mcp.Server
	calculator domain.Calculator
	history    HistoryStore
	limiter    *rate.Limiter
	exportDir  string
	logger     *logrus.Logger
}

// ServerOption is a functional option for Server.
type ServerOption func(*Server)

// WithHistory sets the history store. Without it the server keeps history in
// memory for the lifetime of the process.
func WithHistory(store HistoryStore) ServerOption {
	return func(s *Server) {
		s.history = store
	}
}

// WithExportDir sets the directory export_history writes to.
func WithExportDir(dir string) ServerOption {
	return func(s *Server) {
		s.exportDir = dir
	}
}

// NewServer creates a new MCP server instance with every tool registered.
func NewServer(cfg domain.MCPConfig, calculator domain.Calculator, logger *logrus.Logger, opts ...ServerOption) (*Server, error) {
	if calculator == nil {
		return nil, fmt.Errorf("calculator is required")
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "clif-c-of-calculator"
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "v0.1.0"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	server := &Server{
		config:     cfg,
		calculator: calculator,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		exportDir:  ".",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.history == nil {
		server.history = history.NewStore(history.NewMemoryStorage(), history.Options{}, logger)
	}

	serverInfo := &mcp.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}
	server.mcpServer = mcp.NewServer(serverInfo, nil)
	server.registerTools()
	server.registerResources()
	server.registerPrompts()

	server.logger.WithFields(logrus.Fields{
		"server_name":    cfg.ServerName,
		"server_version": cfg.ServerVersion,
		"tool_count":     len(toolNames),
		"resource_count": len(resourceURIs),
		"prompt_count":   len(promptNames),
	}).Info("MCP server initialized")
	return server, nil
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting CLIF-C OF MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
