package ratelimit

import (
	"net/http"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Mux-style pattern; "{id}" matches one segment, a trailing "/" a subtree
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// DefaultConfig returns an enabled limiter configuration with the default
// endpoint tiers.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Writes: every wizard edit turns into one of these.
		{Path: "/users/{id}/skills", Method: http.MethodPost, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/users/{id}/experiences", Method: http.MethodPost, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/skills/{id}", Method: http.MethodPut, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/skills/{id}", Method: http.MethodDelete, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/experiences/{id}", Method: http.MethodPut, Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/experiences/{id}", Method: http.MethodDelete, Limit: 300, Window: time.Minute, Burst: 30},

		// Reads use the default limit; /health is unlimited (see MatchEndpoint).
	}
}

// ParseIPList parses a comma-separated list of IP addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}
	return result
}
