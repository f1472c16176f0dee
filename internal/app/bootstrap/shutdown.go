// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the scheduler, drains in-flight emails, then disconnects
// MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc := deps.services; svc != nil {
		if svc.reconciler != nil {
			svc.reconciler.Stop(ctx)
		}
		if svc.dispatcher != nil {
			if err := svc.dispatcher.Wait(ctx); err != nil {
				logger.Warn("pending emails not drained", zap.Error(err))
			}
		}
		if svc.limiter != nil {
			svc.limiter.Close()
		}
	}

	if deps.OrderlyMongoClient != nil {
		logger.Info("disconnecting Orderly MongoDB client")
		if err := deps.OrderlyMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
