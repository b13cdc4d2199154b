// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, CORS, body limits); AppConfig is everything specific to
// CampusHub. The struct is passed to most lifecycle hooks, so any
// configuration needed during startup, request handling, or shutdown
// lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionDomain string // Cookie domain (blank means current host)

	// Audit logging: "all" (db+log), "db", "log", or "off" per category
	AuditLogAuth  string
	AuditLogAdmin string

	// Super admin bootstrap. Either a plaintext password (hashed on
	// first seed) or a pre-computed bcrypt hash; the hash wins when
	// both are set.
	SuperAdminEmail        string
	SuperAdminPassword     string
	SuperAdminPasswordHash string

	// HardenExisting forces protected=true and status=active on any
	// super admin found at startup.
	HardenExisting bool
}
