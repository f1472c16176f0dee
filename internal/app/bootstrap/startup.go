// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/orderly/internal/app/store/audit"
	membershipstore "github.com/dalemusser/orderly/internal/app/store/memberships"
	"github.com/dalemusser/orderly/internal/app/system/auditlog"
	"github.com/dalemusser/orderly/internal/app/system/auth"
	"github.com/dalemusser/orderly/internal/app/system/mailer"
	"github.com/dalemusser/orderly/internal/app/system/ratelimit"
	"github.com/dalemusser/orderly/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are the long-lived objects built once at Startup and shared by
// BuildHandler and Shutdown.
type services struct {
	tokens     *auth.TokenManager
	dispatcher *mailer.Dispatcher
	limiter    *ratelimit.LoginLimiter
	members    *membershipstore.Store
	audit      *auditlog.Logger
	reconciler *workers.Reconciler
}

// Startup builds the long-lived services and starts the reconcile schedule
// when one is configured.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.services == nil {
		return fmt.Errorf("startup: database dependencies not connected")
	}
	svc, err := buildServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	*deps.services = *svc

	if svc.reconciler != nil {
		svc.reconciler.Start()
		logger.Info("membership reconciliation scheduled", zap.String("schedule", appCfg.ReconcileSchedule))
	}
	return nil
}

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	var m mailer.Mailer
	if appCfg.MailAPIKey != "" {
		m = mailer.NewSendGrid(appCfg.MailAPIKey, appCfg.MailFrom, appCfg.MailFromName, logger)
	} else {
		logger.Warn("mail_api_key not set; emails will be logged, not sent")
		m = mailer.NewLogMailer(logger)
	}
	dispatcher := mailer.NewDispatcher(m, mailer.DispatcherConfig{
		SiteName:          appCfg.MailFromName,
		WelcomeTemplateID: appCfg.MailWelcomeTemplateID,
	}, logger)

	members := membershipstore.New(deps.OrderlyMongoDatabase, dispatcher, membershipstore.Config{
		DefaultProfilePicture: appCfg.DefaultProfilePicture,
		DefaultTeamLogo:       appCfg.DefaultTeamLogo,
		BcryptCost:            appCfg.BcryptCost,
	}, logger)

	svc := &services{
		tokens:     tokens,
		dispatcher: dispatcher,
		limiter:    ratelimit.NewLoginLimiter(appCfg.LoginRateLimit),
		members:    members,
		audit: auditlog.New(audit.New(deps.OrderlyMongoDatabase), logger, auditlog.Config{
			Auth:       appCfg.AuditLogAuth,
			Membership: appCfg.AuditLogMembership,
		}),
	}

	if appCfg.ReconcileSchedule != "" {
		rec, err := workers.NewReconciler(members, svc.audit, logger, appCfg.ReconcileSchedule)
		if err != nil {
			svc.limiter.Close()
			logger.Error("invalid reconcile schedule", zap.String("schedule", appCfg.ReconcileSchedule), zap.Error(err))
			return nil, err
		}
		svc.reconciler = rec
	}
	return svc, nil
}
