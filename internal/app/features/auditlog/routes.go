// internal/app/features/auditlog/routes.go
package auditlog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/audit. Every route requires a token; ServeList
// further restricts access to Admins.
func Routes(h *Handler, requireToken func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireToken)
	r.Get("/", h.ServeList)
	return r
}
