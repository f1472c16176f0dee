// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditlogfeature "github.com/dalemusser/orderly/internal/app/features/auditlog"
	authapifeature "github.com/dalemusser/orderly/internal/app/features/authapi"
	healthfeature "github.com/dalemusser/orderly/internal/app/features/health"
	profilefeature "github.com/dalemusser/orderly/internal/app/features/profile"
	teamsfeature "github.com/dalemusser/orderly/internal/app/features/teams"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Banner is the body of GET /.
const Banner = "Orderly API is running"

// BuildHandler constructs the root router. WAFFLE calls it after config,
// DB connection, schema setup and Startup have completed, so the services
// built at Startup are ready.
//
// Public: /, /health, /metrics, /api/auth. Everything under /api/profile,
// /api/team and /api/audit requires an x-auth-token.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc := deps.services
	if svc == nil || svc.tokens == nil {
		logger.Error("BuildHandler called before Startup")
		return nil, errors.New("services not initialized")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteStatus(w, http.StatusNotFound, apierr.Code(apierr.KindNotFound), "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteStatus(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})

	// Health check for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.OrderlyMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	// Authentication
	authHandler := authapifeature.NewHandler(deps.OrderlyMongoDatabase, svc.tokens, svc.dispatcher, svc.limiter, svc.audit,
		authapifeature.Config{
			DefaultProfilePicture: appCfg.DefaultProfilePicture,
			BcryptCost:            appCfg.BcryptCost,
		}, logger)
	r.Mount("/api/auth", authapifeature.Routes(authHandler))

	// Caller's own profile
	profileHandler := profilefeature.NewHandler(deps.OrderlyMongoDatabase, logger)
	r.Mount("/api/profile", profilefeature.Routes(profileHandler, svc.tokens.Require))

	// Team membership and hierarchy
	teamsHandler := teamsfeature.NewHandler(svc.members, svc.audit, logger)
	r.Mount("/api/team", teamsfeature.Routes(teamsHandler, svc.tokens.Require))

	// Audit trail (Admin only)
	auditHandler := auditlogfeature.NewHandler(deps.OrderlyMongoDatabase, logger)
	r.Mount("/api/audit", auditlogfeature.Routes(auditHandler, svc.tokens.Require))

	return r, nil
}
