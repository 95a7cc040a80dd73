// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"sync"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers and disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	closeBackground()

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}

// background holds workers started during startup that Shutdown stops.
var background struct {
	mu      sync.Mutex
	closers []func()
}

func onShutdown(fn func()) {
	background.mu.Lock()
	defer background.mu.Unlock()
	background.closers = append(background.closers, fn)
}

func closeBackground() {
	background.mu.Lock()
	defer background.mu.Unlock()
	for _, fn := range background.closers {
		fn()
	}
	background.closers = nil
}
