package authorize

import "github.com/Alijeyrad/healthmarket_backend/config"

// Config holds configuration for the authorization system
type Config struct {
	// CasbinModelPath is the path to the Casbin model configuration file
	CasbinModelPath string

	// EnableAudit wraps the enforcer with decision logging
	EnableAudit bool

	// SuperadminBypass lets role:sys:admin skip policy evaluation
	SuperadminBypass bool

	// PolicySyncEnabled attaches the Postgres LISTEN/NOTIFY watcher
	PolicySyncEnabled bool
}

// DefaultConfig returns sensible defaults for authorization configuration
func DefaultConfig() Config {
	return Config{
		CasbinModelPath:   "casbin_model.conf",
		EnableAudit:       false,
		SuperadminBypass:  true,
		PolicySyncEnabled: false,
	}
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	out := DefaultConfig()
	if c.CasbinModelPath != "" {
		out.CasbinModelPath = c.CasbinModelPath
	}
	out.EnableAudit = c.EnableAudit
	out.SuperadminBypass = c.SuperadminBypass
	out.PolicySyncEnabled = c.PolicySyncEnabled
	return out
}
