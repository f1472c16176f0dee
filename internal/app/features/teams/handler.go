// internal/app/features/teams/handler.go
package teams

import (
	"context"
	"net/http"

	membershipstore "github.com/dalemusser/orderly/internal/app/store/memberships"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/auditlog"
	"github.com/dalemusser/orderly/internal/app/system/auth"
	"github.com/dalemusser/orderly/internal/app/system/inputval"
	"github.com/dalemusser/orderly/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /api/team. All membership rules live in the membership
// store; handlers parse input, check path ownership and shape responses.
type Handler struct {
	Members *membershipstore.Store
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

// NewHandler builds the teams handler. audit may be nil.
func NewHandler(members *membershipstore.Store, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Members: members, Audit: audit, Log: logger}
}

// messageResponse is the body of a write that has nothing else to return.
type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apierr.Write(w, r, h.Log, err)
}

// identity returns the verified caller or writes 401.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		h.fail(w, r, apierr.Unauthorized(auth.MsgMissingToken))
		return primitive.NilObjectID, false
	}
	return id.UserID, true
}

// pathID parses a chi URL parameter as an ObjectID or writes 400.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param, what string) (primitive.ObjectID, bool) {
	oid, err := inputval.ObjectID(chi.URLParam(r, param), what)
	if err != nil {
		h.fail(w, r, err)
		return primitive.NilObjectID, false
	}
	return oid, true
}

// actingAs resolves whose behalf a /{userId} route acts on. The caller may
// act for themself; acting for anyone else passes allow. The acting user
// must exist and be active either way.
func (h *Handler) actingAs(ctx context.Context, callerID, targetID primitive.ObjectID, allow func(models.User, primitive.ObjectID) bool) error {
	caller, err := h.Members.Actor(ctx, callerID)
	if err != nil {
		return err
	}
	if callerID != targetID && !allow(caller, targetID) {
		return apierr.Unauthorized("You cannot perform this operation for another user")
	}
	return nil
}
