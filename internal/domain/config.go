package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Logging LoggingConfig `mapstructure:"logging"`
	History HistoryConfig `mapstructure:"history"`
	Cache   CacheConfig   `mapstructure:"cache"`
	MCP     MCPConfig     `mapstructure:"mcp"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json", "text"
	Output string `mapstructure:"output"` // "stderr", "stdout" or a file path
}

// HistoryBackend selects the key-value store behind the history.
type HistoryBackend string

const (
	BackendSQLite   HistoryBackend = "sqlite"
	BackendPostgres HistoryBackend = "postgres"
	BackendRedis    HistoryBackend = "redis"
	BackendMemory   HistoryBackend = "memory"
)

// IsValid reports whether b names a supported backend.
func (b HistoryBackend) IsValid() bool {
	switch b {
	case BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
		return true
	default:
		return false
	}
}

// MaxHistoryEntries is the largest number of evaluations history keeps.
const MaxHistoryEntries = 10

// HistoryConfig represents evaluation history persistence configuration
type HistoryConfig struct {
	Backend     HistoryBackend `mapstructure:"backend"`
	Key         string         `mapstructure:"key"`
	MaxEntries  int            `mapstructure:"max_entries"`
	SQLitePath  string         `mapstructure:"sqlite_path"`
	PostgresURL string         `mapstructure:"postgres_url"`
	RedisURL    string         `mapstructure:"redis_url"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	Breaker     BreakerConfig  `mapstructure:"breaker"`
}

// BreakerConfig represents circuit breaker settings for remote history backends
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// CacheConfig represents result cache configuration
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	MaxItems int           `mapstructure:"max_items"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string  `mapstructure:"server_name"`
	ServerVersion string  `mapstructure:"server_version"`
	RateLimit     float64 `mapstructure:"rate_limit"` // tool calls per second
	Burst         int     `mapstructure:"burst"`
}
