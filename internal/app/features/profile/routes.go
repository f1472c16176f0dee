// internal/app/features/profile/routes.go
package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/profile behind the token gate.
func Routes(h *Handler, requireToken func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireToken)
	r.Get("/", h.ServeProfile)
	r.Put("/", h.HandleUpdate)
	return r
}
