// internal/app/features/teams/routes.go
package teams

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/team. Every route requires a token.
func Routes(h *Handler, requireToken func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireToken)

	r.Get("/memberData/{memberId}", h.ServeMember)
	r.Get("/transfers/{memberId}", h.ServeTransfers)
	r.Get("/{userId}", h.ServeVisibleTeams)

	r.Post("/create/{userId}", h.HandleCreate)
	r.Post("/addEmployee/{teamId}", h.HandleAddEmployee)
	r.Post("/inviteSupervisor/{userId}", h.HandleInviteSupervisor)
	r.Post("/reconcile", h.HandleReconcile)

	r.Put("/removeMember/{memberId}", h.HandleRemoveMember)
	r.Put("/transfer/{memberId}", h.HandleTransfer)
	r.Put("/status/{memberId}", h.HandleStatus)
	return r
}
