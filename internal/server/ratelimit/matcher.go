package ratelimit

import (
	"strings"
)

// unlimited is returned for endpoints that are never limited.
var unlimited = EndpointConfig{}

// MatchEndpoint returns the configuration for path and method, or nil when the
// default limit applies. Exact paths win over prefixes; a config path ending in
// "/" matches everything below it, and Method "*" matches any method.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "OPTIONS" || (path == "/health" && method == "GET") {
		u := unlimited
		return &u
	}

	for i := range configs {
		if configs[i].Path == path && methodMatches(configs[i].Method, method) {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if !strings.HasSuffix(c.Path, "/") || !methodMatches(c.Method, method) || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}

func methodMatches(pattern, method string) bool {
	return pattern == "*" || strings.EqualFold(pattern, method)
}
