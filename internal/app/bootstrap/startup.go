// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/store/audit"
	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"github.com/dalemusser/resolvehub/internal/app/system/workers"
	"github.com/dalemusser/resolvehub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts overridden from environment",
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long))
	}

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}

	if appCfg.AuditRetention > 0 {
		w := workers.NewAuditRetention(audit.New(deps.MongoDatabase), logger, auditPurgeInterval, appCfg.AuditRetention)
		w.Start()
		onShutdown(w.Stop)
	}
	return nil
}

// auditPurgeInterval is how often the retention worker runs.
const auditPurgeInterval = time.Hour

// ensureAdmin promotes the user registered under email to admin. A missing
// account is only a warning: the address can register later and the next
// restart promotes it.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	err := userstore.New(deps.MongoDatabase).SetRole(sctx, email, models.RoleAdmin)
	if errors.Is(err, userstore.ErrNotFound) {
		logger.Warn("admin_email has no account yet", zap.String("email", email))
		return nil
	}
	if err != nil {
		logger.Error("promote admin failed", zap.String("email", email), zap.Error(err))
		return err
	}
	logger.Info("admin role ensured", zap.String("email", email))
	return nil
}
