// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	accountfeature "github.com/dalemusser/resolvehub/internal/app/features/account"
	adminfeature "github.com/dalemusser/resolvehub/internal/app/features/admin"
	auditlogfeature "github.com/dalemusser/resolvehub/internal/app/features/auditlog"
	frontendfeature "github.com/dalemusser/resolvehub/internal/app/features/frontend"
	healthfeature "github.com/dalemusser/resolvehub/internal/app/features/health"
	"github.com/dalemusser/resolvehub/internal/app/store/audit"
	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/auditlog"
	"github.com/dalemusser/resolvehub/internal/app/system/auth"
	"github.com/dalemusser/resolvehub/internal/app/system/mailer"
	"github.com/dalemusser/resolvehub/internal/app/system/ratelimit"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"github.com/dalemusser/resolvehub/internal/app/system/tokens"
	"github.com/dalemusser/resolvehub/internal/app/system/uploads"
	"github.com/dalemusser/resolvehub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// ResolveHub mounts the health check, the account API under /api, the
// admin API under /admin_api, uploaded files, and the SPA catch-all.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	issuer, err := tokens.NewIssuer(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTExpiry)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}

	// The fetcher re-reads the user on each request so bans and role
	// changes take effect before the token expires.
	authMgr := auth.NewManager(issuer, userstore.NewFetcher(deps.MongoDatabase), logger)

	store, err := newUploadStore(appCfg)
	if err != nil {
		logger.Error("upload store init failed", zap.String("backend", appCfg.UploadBackend), zap.Error(err))
		return nil, fmt.Errorf("upload store: %w", err)
	}

	audits := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	var limiter *ratelimit.LoginLimiter
	if appCfg.LoginRateLimit > 0 {
		limiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
		onShutdown(limiter.Close)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(appCfg.CORSOrigins))

	// Unmatched paths inside the API routers answer with JSON, not the SPA.
	r.NotFound(frontendfeature.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	mail := mailer.New(mailer.Config{
		Host:        appCfg.SMTPHost,
		Port:        appCfg.SMTPPort,
		Username:    appCfg.SMTPUsername,
		Password:    appCfg.SMTPPassword,
		FromAddress: appCfg.SMTPFromAddress,
		FromName:    appCfg.SMTPFromName,
		SiteName:    appCfg.SiteName,
	}, logger)

	// Registration, login, password reset, profile, own history
	accountHandler := accountfeature.NewHandler(
		deps.MongoDatabase,
		appCfg.HistoryCollection,
		issuer,
		limiter,
		store,
		mail,
		appCfg.ResetCodeExpiry,
		audits,
		appCfg.MaxUploadBytes,
		logger,
	)
	r.Mount("/api", accountfeature.Routes(accountHandler, authMgr))

	// User management and activity history
	adminHandler := adminfeature.NewHandler(deps.MongoDatabase, appCfg.HistoryCollection, audits, logger)
	var adminGuards []func(http.Handler) http.Handler
	if appCfg.AdminRequireAuth {
		adminGuards = append(adminGuards, authMgr.LoadBearerUser, auth.RequireRole(models.RoleAdmin))
	}
	r.Mount("/admin_api", adminfeature.Routes(adminHandler, adminGuards...))

	// Audit trail of auth and admin events, behind the same guards
	auditHandler := auditlogfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/admin_api/audit", chi.Chain(adminGuards...).Handler(auditlogfeature.Routes(auditHandler)))

	// Uploads and the SPA; mounted last so it only sees unmatched paths.
	frontendHandler := frontendfeature.NewHandler(store, appCfg.FrontendDist, logger)
	r.Mount("/", frontendfeature.Routes(frontendHandler))

	logger.Info("routes built",
		zap.String("env", coreCfg.Env),
		zap.Bool("admin_require_auth", appCfg.AdminRequireAuth),
		zap.String("upload_backend", appCfg.UploadBackend),
		zap.Bool("smtp_configured", appCfg.SMTPHost != ""),
		zap.String("frontend_dist", appCfg.FrontendDist))

	return r, nil
}

// corsHandler allows the SPA's dev server and configured origins to call
// the API with credentials.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		// credentials cannot be combined with "*", so echo the caller
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.Handler(opts)
}

// newUploadStore opens the configured upload backend.
func newUploadStore(appCfg AppConfig) (uploads.Store, error) {
	if appCfg.UploadBackend != uploadBackendS3 {
		local, err := uploads.NewLocal(appCfg.UploadRoot)
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()
	s3, err := uploads.NewS3(ctx, uploads.S3Config{
		Endpoint:  appCfg.S3Endpoint,
		AccessKey: appCfg.S3AccessKey,
		SecretKey: appCfg.S3SecretKey,
		Bucket:    appCfg.S3Bucket,
		Prefix:    appCfg.S3Prefix,
	})
	if err != nil {
		return nil, err
	}
	return s3, nil
}
