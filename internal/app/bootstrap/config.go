// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/store/activity"
	"github.com/dalemusser/resolvehub/internal/app/store/resetcodes"
	"github.com/dalemusser/resolvehub/internal/app/system/auditlog"
	"github.com/dalemusser/resolvehub/internal/app/system/tokens"
	"github.com/dalemusser/resolvehub/internal/app/system/uploads"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.uber.org/zap"
)

// devJWTSecret is accepted only outside prod.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

const (
	uploadBackendLocal = "local"
	uploadBackendS3    = "s3"
)

// appConfigKeys defines the configuration keys for ResolveHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: RESOLVEHUB_MONGO_URI, RESOLVEHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "resolvehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "history_collection", Default: activity.DefaultCollection, Desc: "Collection holding activity history records"},

	// Bearer tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HS256 token signing key (at least 32 chars in production)"},
	{Name: "jwt_issuer", Default: "resolvehub", Desc: "Token issuer claim"},
	{Name: "jwt_expiry", Default: "1h", Desc: "Access token lifetime (e.g., 30m, 1h, 24h)"},

	// Files
	{Name: "upload_backend", Default: "local", Desc: "Upload storage: 'local' (upload_root) or 's3'"},
	{Name: "upload_root", Default: "./uploads", Desc: "Directory for uploaded files (served at /static/uploads/)"},
	{Name: "frontend_dist", Default: "./frontend/dist", Desc: "Directory holding the built frontend"},
	{Name: "max_upload_bytes", Default: 5 << 20, Desc: "Max profile upload size in bytes"},

	// S3-compatible upload storage
	{Name: "s3_endpoint", Default: "", Desc: "S3/MinIO endpoint (host:port or http(s)://host:port)"},
	{Name: "s3_access_key", Default: "", Desc: "S3 access key"},
	{Name: "s3_secret_key", Default: "", Desc: "S3 secret key"},
	{Name: "s3_bucket", Default: "", Desc: "S3 bucket for uploads (must exist)"},
	{Name: "s3_prefix", Default: "", Desc: "Optional key prefix inside the bucket"},

	// Outgoing mail
	{Name: "smtp_host", Default: "", Desc: "SMTP host for reset emails (blank logs emails instead of sending)"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP port (587 STARTTLS, 465 SSL)"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password"},
	{Name: "smtp_from_address", Default: "", Desc: "Sender address for outgoing email"},
	{Name: "smtp_from_name", Default: "ResolveHub", Desc: "Sender display name"},
	{Name: "site_name", Default: "ResolveHub", Desc: "Product name used in emails"},
	{Name: "reset_code_expiry", Default: "10m", Desc: "Password reset code lifetime"},

	// CORS
	{Name: "cors_origins", Default: "", Desc: "Comma-separated allowed origins (blank allows any)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "How long audit events are kept (0 keeps forever)"},

	// Admin API
	{Name: "admin_require_auth", Default: false, Desc: "Require an admin bearer token on /admin_api"},
	{Name: "admin_email", Default: "", Desc: "Email of a user to promote to admin on startup"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per IP per window (0 disables)"},
	{Name: "login_rate_window", Default: "1m", Desc: "Login rate limit window"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// RESOLVEHUB_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "RESOLVEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:          appValues.String("mongo_uri"),
		MongoDatabase:     appValues.String("mongo_database"),
		MongoMaxPoolSize:  uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:  uint64(appValues.Int("mongo_min_pool_size")),
		HistoryCollection: appValues.String("history_collection"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		JWTExpiry: appValues.Duration("jwt_expiry", time.Hour),

		UploadBackend:  strings.ToLower(strings.TrimSpace(appValues.String("upload_backend"))),
		UploadRoot:     appValues.String("upload_root"),
		FrontendDist:   appValues.String("frontend_dist"),
		MaxUploadBytes: int64(appValues.Int("max_upload_bytes")),

		S3Endpoint:  appValues.String("s3_endpoint"),
		S3AccessKey: appValues.String("s3_access_key"),
		S3SecretKey: appValues.String("s3_secret_key"),
		S3Bucket:    appValues.String("s3_bucket"),
		S3Prefix:    appValues.String("s3_prefix"),

		SMTPHost:        appValues.String("smtp_host"),
		SMTPPort:        appValues.Int("smtp_port"),
		SMTPUsername:    appValues.String("smtp_username"),
		SMTPPassword:    appValues.String("smtp_password"),
		SMTPFromAddress: appValues.String("smtp_from_address"),
		SMTPFromName:    appValues.String("smtp_from_name"),
		SiteName:        appValues.String("site_name"),
		ResetCodeExpiry: appValues.Duration("reset_code_expiry", resetcodes.DefaultExpiry),

		CORSOrigins: splitList(appValues.String("cors_origins")),

		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditRetention: appValues.Duration("audit_retention", 90*24*time.Hour),

		AdminRequireAuth: appValues.Bool("admin_require_auth"),
		AdminEmail:       appValues.String("admin_email"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before connecting, and production refuses to
// start with the development token secret or one shorter than
// tokens.MinSecretLen.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must be set")
	}
	if appCfg.HistoryCollection == "" {
		return errors.New("history_collection must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret must be set")
	}
	if coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret {
			return errors.New("jwt_secret must be changed from the development default in production")
		}
		if len(appCfg.JWTSecret) < tokens.MinSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d characters in production", tokens.MinSecretLen)
		}
	}
	if appCfg.JWTExpiry <= 0 {
		return fmt.Errorf("jwt_expiry must be positive, got %s", appCfg.JWTExpiry)
	}

	switch appCfg.UploadBackend {
	case uploadBackendLocal:
		if appCfg.UploadRoot == "" {
			return errors.New("upload_root must be set")
		}
	case uploadBackendS3:
		if _, _, err := uploads.ParseEndpoint(appCfg.S3Endpoint); err != nil {
			return fmt.Errorf("s3_endpoint: %w", err)
		}
		if appCfg.S3AccessKey == "" || appCfg.S3SecretKey == "" {
			return errors.New("s3_access_key and s3_secret_key must be set for the s3 upload backend")
		}
		if appCfg.S3Bucket == "" {
			return errors.New("s3_bucket must be set for the s3 upload backend")
		}
	default:
		return fmt.Errorf("upload_backend: unknown backend %q", appCfg.UploadBackend)
	}
	if appCfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", appCfg.MaxUploadBytes)
	}

	if appCfg.SMTPHost != "" {
		if appCfg.SMTPPort <= 0 {
			return fmt.Errorf("smtp_port must be positive, got %d", appCfg.SMTPPort)
		}
		if !validate.SimpleEmailValid(appCfg.SMTPFromAddress) {
			return fmt.Errorf("smtp_from_address: invalid address %q", appCfg.SMTPFromAddress)
		}
	} else if coreCfg.Env == "prod" {
		logger.Warn("smtp_host is not set; password reset codes will be logged, not emailed")
	}
	if appCfg.ResetCodeExpiry <= 0 {
		return fmt.Errorf("reset_code_expiry must be positive, got %s", appCfg.ResetCodeExpiry)
	}

	if !auditlog.ValidMode(appCfg.AuditLogAuth) {
		return fmt.Errorf("audit_log_auth: unknown mode %q", appCfg.AuditLogAuth)
	}
	if !auditlog.ValidMode(appCfg.AuditLogAdmin) {
		return fmt.Errorf("audit_log_admin: unknown mode %q", appCfg.AuditLogAdmin)
	}

	if appCfg.AuditRetention < 0 {
		return fmt.Errorf("audit_retention must not be negative, got %s", appCfg.AuditRetention)
	}

	if appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("login_rate_limit must not be negative, got %d", appCfg.LoginRateLimit)
	}
	if appCfg.LoginRateLimit > 0 && appCfg.LoginRateWindow <= 0 {
		return fmt.Errorf("login_rate_window must be positive, got %s", appCfg.LoginRateWindow)
	}

	if !appCfg.AdminRequireAuth {
		logger.Warn("admin API is not protected; set admin_require_auth in production")
	}
	return nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
