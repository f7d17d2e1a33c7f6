package ratelimit

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit applied to one method and path.
type EndpointConfig struct {
	Path   string        // Exact path, or a prefix when it ends in "/"
	Method string        // HTTP method, or "*" for any
	Limit  int           // Requests per window
	Window time.Duration // Refill window
	Burst  int           // Bucket capacity (Limit when 0)
}

// LoadConfig reads the limiter configuration from RATE_LIMIT_* variables.
// Malformed values keep their defaults.
func LoadConfig() *Config {
	if !envValue("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	endpoints := DefaultEndpointConfigs()
	if raw := os.Getenv("RATE_LIMIT_ENDPOINTS"); raw != "" {
		overrides, err := ParseEndpointConfigs(raw)
		if err != nil {
			log.Printf("[rate-limit] ignoring RATE_LIMIT_ENDPOINTS: %v", err)
		} else {
			endpoints = mergeEndpoints(endpoints, overrides)
		}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envValue("RATE_LIMIT_DEFAULT_LIMIT", 1000, strconv.Atoi),
		DefaultWindow:   envValue("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envValue("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		IdleTTL:         envValue("RATE_LIMIT_IDLE_TTL", time.Hour, time.ParseDuration),
		Whitelist:       parseClientList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseClientList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: endpoints,
	}
}

// DefaultEndpointConfigs returns the built-in per-endpoint limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Document decoding and profile lookups are the expensive operations
		{Path: "/api/parse-resume", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/linkedin", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/api/imports/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// ParseEndpointConfigs parses a comma-separated list of
// "METHOD PATH=LIMIT/WINDOW[:BURST]" entries, e.g.
// "POST /api/parse-resume=10/1m:2, GET /api/imports/=100/1m".
func ParseEndpointConfigs(raw string) ([]EndpointConfig, error) {
	var configs []EndpointConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		route, rule, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q: missing '='", entry)
		}
		method, path, ok := strings.Cut(strings.TrimSpace(route), " ")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("entry %q: want \"METHOD PATH\"", entry)
		}

		rule, burstStr, hasBurst := strings.Cut(strings.TrimSpace(rule), ":")
		limitStr, windowStr, ok := strings.Cut(rule, "/")
		if !ok {
			return nil, fmt.Errorf("entry %q: want LIMIT/WINDOW", entry)
		}
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("entry %q: invalid limit %q", entry, limitStr)
		}
		window, err := time.ParseDuration(windowStr)
		if err != nil || window <= 0 {
			return nil, fmt.Errorf("entry %q: invalid window %q", entry, windowStr)
		}
		cfg := EndpointConfig{
			Method: strings.ToUpper(strings.TrimSpace(method)),
			Path:   strings.TrimSpace(path),
			Limit:  limit,
			Window: window,
		}
		if hasBurst {
			if cfg.Burst, err = strconv.Atoi(burstStr); err != nil || cfg.Burst < 0 {
				return nil, fmt.Errorf("entry %q: invalid burst %q", entry, burstStr)
			}
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// mergeEndpoints replaces base entries with the same method and path and
// appends the rest.
func mergeEndpoints(base, overrides []EndpointConfig) []EndpointConfig {
	merged := append([]EndpointConfig(nil), base...)
	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].Path == o.Path && strings.EqualFold(merged[i].Method, o.Method) {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

func envValue[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		log.Printf("[rate-limit] invalid %s=%q, using default", key, raw)
		return def
	}
	return v
}

// parseClientList turns "a, b,c" into a set of client IDs.
func parseClientList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			result[id] = true
		}
	}
	return result
}
