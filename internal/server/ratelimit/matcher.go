package ratelimit

import (
	"net/http"
	"strings"
)

// healthTier leaves health checks unlimited.
var healthTier = EndpointConfig{Path: "/health", Method: http.MethodGet}

// MatchEndpoint returns the tier for a request, or nil when the default limit
// applies. Patterns use the mux's syntax: "{name}" matches exactly one
// non-empty segment and a trailing "/" matches anything below it. When
// several patterns match, the one with the most literal segments wins.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == healthTier.Path && method == healthTier.Method {
		tier := healthTier
		return &tier
	}

	var best *EndpointConfig
	bestScore := -1
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if score, ok := matchPattern(c.Path, path); ok && score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func matchPattern(pattern, path string) (int, bool) {
	subtree := strings.HasSuffix(pattern, "/")
	want := segments(pattern)
	got := segments(path)
	if len(got) < len(want) || (!subtree && len(got) != len(want)) {
		return 0, false
	}

	score := 0
	for i, seg := range want {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if got[i] == "" {
				return 0, false
			}
			continue
		}
		if seg != got[i] {
			return 0, false
		}
		score += 2
	}
	if !subtree {
		// exact-length patterns beat subtree patterns with the same literals
		score++
	}
	return score, true
}

func segments(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}
