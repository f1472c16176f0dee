// internal/app/features/teams/read.go
package teams

import (
	"context"
	"net/http"

	"github.com/dalemusser/orderly/internal/app/system/authz"
	"github.com/dalemusser/orderly/internal/app/system/httpjson"
	"github.com/dalemusser/orderly/internal/app/system/timeouts"
	"github.com/dalemusser/orderly/internal/domain/models"
)

type visibleTeamsResponse struct {
	Team []models.TeamWithEmployees `json:"team"`
}

// ServeVisibleTeams handles GET /api/team/{userId}. The body is always
// {"team": [...]}, empty when the user sees no team.
func (h *Handler) ServeVisibleTeams(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userId", "user id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.actingAs(ctx, callerID, userID, authz.CanViewTeamsOf); err != nil {
		h.fail(w, r, err)
		return
	}

	teams, err := h.Members.ResolveVisibleTeams(ctx, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, visibleTeamsResponse{Team: teams})
}

// ServeMember handles GET /api/team/memberData/{memberId}.
func (h *Handler) ServeMember(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	memberID, ok := h.pathID(w, r, "memberId", "member id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	member, err := h.Members.GetMember(ctx, memberID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, member)
}

type transfersResponse struct {
	Transfers []models.TransferHistory `json:"transfers"`
}

// ServeTransfers handles GET /api/team/transfers/{memberId}.
func (h *Handler) ServeTransfers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	memberID, ok := h.pathID(w, r, "memberId", "member id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.Members.Transfers(ctx, memberID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, transfersResponse{Transfers: out})
}
