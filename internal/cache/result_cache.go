// Package cache memoises evaluation results keyed by their raw inputs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// ResultCache is a size-bounded, TTL-expiring cache of diagnosis results.
type ResultCache struct {
	lru       *expirable.LRU[string, *domain.DiagnosisResult]
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewResultCache creates a cache from cfg. It returns nil when caching is
// disabled; a nil *ResultCache is a valid, always-missing cache.
func NewResultCache(cfg domain.CacheConfig) *ResultCache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 256
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}

	c := &ResultCache{}
	c.lru = expirable.NewLRU[string, *domain.DiagnosisResult](cfg.MaxItems, func(string, *domain.DiagnosisResult) {
		c.evictions.Add(1)
	}, cfg.TTL)
	return c
}

// GenerateKey hashes the canonical JSON encoding of the inputs.
func GenerateKey(inputs *domain.PatientInputs) (string, error) {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// Get returns the cached result for key.
func (c *ResultCache) Get(key string) (*domain.DiagnosisResult, bool) {
	if c == nil {
		return nil, false
	}
	result, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

// Add stores result under key.
func (c *ResultCache) Add(key string, result *domain.DiagnosisResult) {
	if c == nil {
		return
	}
	c.lru.Add(key, result)
}

// Purge drops every entry.
func (c *ResultCache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// GetStats returns a snapshot of the cache counters.
func (c *ResultCache) GetStats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.lru.Len(),
	}
}

// GetHitRatio returns hits / (hits + misses), or 0 before the first lookup.
func (c *ResultCache) GetHitRatio() float64 {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0
	}
	return float64(stats.Hits) / float64(total)
}
