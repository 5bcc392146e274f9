package extension

import "time"

// Config holds the Sentinel extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.sentinel" or "sentinel" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for sentinel routes (default: "/sentinel").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// CacheTTL bounds how long allowed decisions may be served from cache.
	CacheTTL time.Duration `json:"cache_ttl" mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// AuditDiscovery writes a summary audit entry for bulk capability
	// discovery calls.
	AuditDiscovery bool `json:"audit_discovery" mapstructure:"audit_discovery" yaml:"audit_discovery"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and auto-constructs
	// the appropriate store based on the driver type (pg/sqlite/mongo).
	// When empty and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL: time.Minute,
	}
}
