package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// EnvPrefix is the prefix of every environment override, e.g. CLIF_HISTORY_BACKEND.
const EnvPrefix = "CLIF"

// Manager loads the application configuration using Viper
type Manager struct {
	v      *viper.Viper
	config *domain.Config
}

// NewManager creates a new configuration manager. configFile may be empty,
// in which case config.yaml is searched for in the usual locations.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.loadConfig(configFile); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig(configFile string) error {
	v := m.v

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(DefaultDataDir())
		v.AddConfigPath("/etc/clif-c-of/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m.setDefaults()

	// A config file is optional; defaults and env vars suffice
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The SQLite file follows the data dir unless set explicitly
	if config.History.SQLitePath == "" {
		config.History.SQLitePath = HistoryDBPath(config.DataDir)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	v := m.v

	v.SetDefault("data_dir", DefaultDataDir())

	// Logging defaults; stdout is reserved for MCP frames
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	// History defaults
	v.SetDefault("history.backend", string(domain.BackendSQLite))
	v.SetDefault("history.key", "clif-c-of-history")
	v.SetDefault("history.max_entries", domain.MaxHistoryEntries)
	v.SetDefault("history.sqlite_path", "")
	v.SetDefault("history.postgres_url", "")
	v.SetDefault("history.redis_url", "redis://localhost:6379/0")
	v.SetDefault("history.timeout", "5s")
	v.SetDefault("history.breaker.max_requests", 1)
	v.SetDefault("history.breaker.interval", "60s")
	v.SetDefault("history.breaker.timeout", "30s")
	v.SetDefault("history.breaker.failure_threshold", 3)

	// Result cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_items", 256)
	v.SetDefault("cache.ttl", "15m")

	// MCP defaults
	v.SetDefault("mcp.server_name", "clif-c-of-calculator")
	v.SetDefault("mcp.server_version", "v0.1.0")
	v.SetDefault("mcp.rate_limit", 20)
	v.SetDefault("mcp.burst", 10)
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// ConfigFileUsed returns the config file that was read, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return Validate(m.config)
}

// Validate checks config for values no component can run with.
func Validate(config *domain.Config) error {
	if config.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch config.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	history := config.History
	if !history.Backend.IsValid() {
		return fmt.Errorf("invalid history backend: %s", history.Backend)
	}
	if history.MaxEntries <= 0 || history.MaxEntries > domain.MaxHistoryEntries {
		return fmt.Errorf("history.max_entries must be between 1 and %d: %d", domain.MaxHistoryEntries, history.MaxEntries)
	}
	if history.Key == "" {
		return fmt.Errorf("history.key is required")
	}
	switch history.Backend {
	case domain.BackendSQLite:
		if history.SQLitePath == "" {
			return fmt.Errorf("history.sqlite_path is required for the sqlite backend")
		}
	case domain.BackendPostgres:
		if history.PostgresURL == "" {
			return fmt.Errorf("history.postgres_url is required for the postgres backend")
		}
	case domain.BackendRedis:
		if history.RedisURL == "" {
			return fmt.Errorf("history.redis_url is required for the redis backend")
		}
	}

	if config.Cache.Enabled && config.Cache.MaxItems <= 0 {
		return fmt.Errorf("cache.max_items must be positive when the cache is enabled")
	}

	if config.MCP.RateLimit <= 0 {
		return fmt.Errorf("mcp.rate_limit must be positive: %v", config.MCP.RateLimit)
	}
	if config.MCP.Burst <= 0 {
		return fmt.Errorf("mcp.burst must be positive: %d", config.MCP.Burst)
	}

	return nil
}

// HistoryDBPath returns the default SQLite history file under dataDir.
func HistoryDBPath(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}
