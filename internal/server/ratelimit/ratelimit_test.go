package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_AllowAndStatus(t *testing.T) {
	b := newBucket(10, 1.0)
	now := time.Now()

	for i := 0; i < 10; i++ {
		assert.True(t, b.allow(now), "request %d", i+1)
	}
	assert.False(t, b.allow(now))

	remaining, reset := b.status(now)
	assert.Equal(t, 0, remaining)
	assert.WithinDuration(t, now.Add(10*time.Second), reset, 50*time.Millisecond)
	assert.InDelta(t, time.Second.Seconds(), b.retryAfter(now).Seconds(), 0.05)
}

func TestBucket_Refill(t *testing.T) {
	b := newBucket(10, 1.0)
	now := time.Now()
	for i := 0; i < 10; i++ {
		b.allow(now)
	}

	later := now.Add(1100 * time.Millisecond)
	assert.True(t, b.allow(later))
	assert.False(t, b.allow(later))
}

func TestBucket_FullStatus(t *testing.T) {
	b := newBucket(5, 1.0)
	now := time.Now()
	remaining, reset := b.status(now)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, now, reset)
	assert.Zero(t, b.retryAfter(now))
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.True(t, info.ResetTime.After(time.Now()))

	// Other clients have their own buckets
	allowed, _ = limiter.Allow("127.0.0.2", "/test", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WhitelistBlacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}

	allowed, _ := limiter.Allow("192.168.1.1", "/test", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/api/parse-resume", Method: "POST", Limit: 5, Window: time.Hour, Burst: 5},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/api/parse-resume", "POST")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 5, info.Limit)
	}
	allowed, info := limiter.Allow("127.0.0.1", "/api/parse-resume", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 5, info.Limit)

	allowed, info = limiter.Allow("127.0.0.1", "/health", "GET")
	assert.True(t, allowed)
	assert.Zero(t, info.Limit)

	allowed, info = limiter.Allow("127.0.0.1", "/other", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_Burst(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/burst", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/burst", "POST")
		require.True(t, allowed, "burst request %d", i+1)
	}
	allowed, _ := limiter.Allow("127.0.0.1", "/burst", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
		require.True(t, allowed)
	}
	require.Equal(t, 10, limiter.bucketCount())

	limiter.cleanupBuckets(time.Now())
	assert.Equal(t, 10, limiter.bucketCount())

	limiter.cleanupBuckets(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, limiter.bucketCount())
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/api/linkedin", Method: "POST", Limit: 1},
		{Path: "/api/", Method: "*", Limit: 2},
		{Path: "/api/imports/", Method: "GET", Limit: 3},
	}

	tests := []struct {
		name      string
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{name: "exact", path: "/api/linkedin", method: "POST", wantLimit: 1},
		{name: "longest prefix", path: "/api/imports/123", method: "GET", wantLimit: 3},
		{name: "wildcard method", path: "/api/imports/123", method: "DELETE", wantLimit: 2},
		{name: "method case", path: "/api/linkedin", method: "post", wantLimit: 1},
		{name: "health unlimited", path: "/health", method: "GET", wantLimit: 0},
		{name: "preflight unlimited", path: "/api/linkedin", method: "OPTIONS", wantLimit: 0},
		{name: "no match", path: "/other", method: "GET", wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "42")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.True(t, cfg.Whitelist["10.0.0.2"])
	assert.NotEmpty(t, cfg.EndpointConfigs)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}

func TestLoadConfig_EndpointOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "not-a-number")
	t.Setenv("RATE_LIMIT_ENDPOINTS", "post /api/parse-resume=10/1m:2, GET /api/custom=5/10s")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1000, cfg.DefaultLimit)

	upload := MatchEndpoint("/api/parse-resume", "POST", cfg.EndpointConfigs)
	require.NotNil(t, upload)
	assert.Equal(t, 10, upload.Limit)
	assert.Equal(t, 2, upload.Burst)

	custom := MatchEndpoint("/api/custom", "GET", cfg.EndpointConfigs)
	require.NotNil(t, custom)
	assert.Equal(t, 10*time.Second, custom.Window)
	assert.Len(t, cfg.EndpointConfigs, len(DefaultEndpointConfigs())+1)
}

func TestParseEndpointConfigs_Errors(t *testing.T) {
	for _, raw := range []string{
		"POST /a",
		"/a=1/1m",
		"POST /a=x/1m",
		"POST /a=1/soon",
		"POST /a=1",
		"POST /a=1/1m:-1",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseEndpointConfigs(raw)
			assert.Error(t, err)
		})
	}
}
