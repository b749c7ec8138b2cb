package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

func TestNewResultCache(t *testing.T) {
	assert.Nil(t, NewResultCache(domain.CacheConfig{Enabled: false}))

	cache := NewResultCache(domain.CacheConfig{Enabled: true})
	require.NotNil(t, cache)
	assert.Equal(t, 0, cache.GetStats().Size)
}

func TestGenerateKey(t *testing.T) {
	a := &domain.PatientInputs{Bilirubin: "3", Creatinine: "4.0", O2Flow: "2"}
	b := &domain.PatientInputs{Bilirubin: "3", Creatinine: "4.0", O2Flow: "2"}
	c := &domain.PatientInputs{Bilirubin: "3", Creatinine: "4.0", O2Flow: "2", RRT: true}

	keyA, err := GenerateKey(a)
	require.NoError(t, err)
	keyB, err := GenerateKey(b)
	require.NoError(t, err)
	keyC, err := GenerateKey(c)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
	assert.NotEqual(t, keyA, keyC)
	assert.Len(t, keyA, 64) // SHA-256 hex string length
}

func TestCacheAddAndGet(t *testing.T) {
	cache := NewResultCache(domain.CacheConfig{Enabled: true, MaxItems: 4, TTL: time.Minute})

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	result := &domain.DiagnosisResult{Grade: domain.ACLF1, TotalScore: 8}
	cache.Add("k", result)

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Same(t, result, got)

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.InDelta(t, 0.5, cache.GetHitRatio(), 0.0001)
}

func TestCacheEviction(t *testing.T) {
	cache := NewResultCache(domain.CacheConfig{Enabled: true, MaxItems: 2, TTL: time.Minute})

	cache.Add("a", &domain.DiagnosisResult{})
	cache.Add("b", &domain.DiagnosisResult{})
	cache.Add("c", &domain.DiagnosisResult{})

	_, ok := cache.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	assert.Equal(t, int64(1), cache.GetStats().Evictions)
	assert.Equal(t, 2, cache.GetStats().Size)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewResultCache(domain.CacheConfig{Enabled: true, MaxItems: 2, TTL: 20 * time.Millisecond})
	cache.Add("a", &domain.DiagnosisResult{})

	assert.Eventually(t, func() bool {
		_, ok := cache.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNilCache(t *testing.T) {
	var cache *ResultCache

	cache.Add("a", &domain.DiagnosisResult{})
	_, ok := cache.Get("a")
	assert.False(t, ok)
	cache.Purge()
	assert.Equal(t, CacheStats{}, cache.GetStats())
	assert.Equal(t, 0.0, cache.GetHitRatio())
}
