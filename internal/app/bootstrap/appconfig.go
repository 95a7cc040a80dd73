// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, log level); everything
// specific to ResolveHub lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// HistoryCollection holds the activity records the admin history view lists.
	HistoryCollection string

	// Bearer tokens
	JWTSecret string        // HS256 signing key (must be strong in production)
	JWTIssuer string        // "iss" claim
	JWTExpiry time.Duration // access token lifetime

	// Files
	UploadBackend  string // "local" or "s3"
	UploadRoot     string // directory served under /static/uploads/ (local backend)
	FrontendDist   string // built SPA (index.html + assets)
	MaxUploadBytes int64  // cap on profile form bodies

	// S3-compatible upload bucket, used when UploadBackend is "s3"
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Prefix    string

	// Outgoing mail for password reset codes; an empty SMTPHost logs
	// messages instead of sending them.
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFromAddress string
	SMTPFromName    string
	SiteName        string

	// ResetCodeExpiry is how long a password reset code stays valid.
	ResetCodeExpiry time.Duration

	// CORSOrigins lists allowed browser origins; empty allows any.
	CORSOrigins []string

	// Audit logging: "all", "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// AuditRetention is how long audit events are kept; zero keeps them forever.
	AuditRetention time.Duration

	// AdminRequireAuth puts /admin_api behind an admin bearer token.
	AdminRequireAuth bool

	// Login throttling per client IP
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// AdminEmail, when set, is promoted to the admin role on startup.
	AdminEmail string
}
