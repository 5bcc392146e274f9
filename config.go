package sentinel

import "time"

// Config holds configuration for the Sentinel engine.
type Config struct {
	// CacheTTL is the time-to-live for cached decisions.
	// Zero means no caching even when a cache is configured.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// AuditDiscovery enables a summary audit entry for each
	// EffectiveCapabilities call. Bulk discovery is read-only and not
	// audited by default.
	AuditDiscovery bool `json:"audit_discovery,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}
