package remote

import "time"

// Config holds configuration for the remote inventory API.
type Config struct {
	// URL is the API base URL, e.g. https://inventory.example.com.
	URL string `mapstructure:"url" default:"http://localhost:8000"`
	// Token is sent as a bearer token on every request.
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds bounds every single request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// CacheTTLSeconds keeps lookups for the rest of a run; zero disables caching.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the lookup cache lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
