// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/orderly/internal/app/store/users"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/auth"
	"github.com/dalemusser/orderly/internal/app/system/httpjson"
	"github.com/dalemusser/orderly/internal/app/system/inputval"
	"github.com/dalemusser/orderly/internal/app/system/timeouts"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	MsgNoProfile     = "There is no profile for this user"
	MsgNothingToSave = "No profile fields to update"
	MsgEmailTaken    = "Email is already in use"
)

// profileResponse is the user with region populated. The outer Region
// shadows User.Region, so "region" holds the document, not the id.
type profileResponse struct {
	models.User
	Region *models.Region `json:"region"`
}

// ServeProfile handles GET /api/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthorized(auth.MsgMissingToken))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, region, err := h.Users.GetWithRegion(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierr.Write(w, r, h.Log, apierr.NotFound(MsgNoProfile))
			return
		}
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}

	httpjson.Write(w, http.StatusOK, profileResponse{User: *user, Region: region})
}

// updateRequest holds the self-editable fields. Blank values are ignored,
// so a client can send the whole form back unchanged.
type updateRequest struct {
	FirstName      string `json:"firstName" validate:"max=100"`
	LastName       string `json:"lastName" validate:"max=100"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"max=32"`
	ProfilePicture string `json:"profilePicture" validate:"max=2048"`
}

func (req updateRequest) toUpdate() userstore.ProfileUpdate {
	var upd userstore.ProfileUpdate
	set := func(dst **string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = &v
		}
	}
	set(&upd.FirstName, req.FirstName)
	set(&upd.LastName, req.LastName)
	set(&upd.Email, req.Email)
	set(&upd.Phone, req.Phone)
	set(&upd.ProfilePicture, req.ProfilePicture)
	return upd
}

// HandleUpdate handles PUT /api/profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthorized(auth.MsgMissingToken))
		return
	}

	var req updateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apierr.Write(w, r, h.Log, apierr.Validation(err.Error()))
		return
	}
	if err := inputval.Struct(req); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	upd := req.toUpdate()
	if upd.Empty() {
		apierr.Write(w, r, h.Log, apierr.Validation(MsgNothingToSave))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if upd.Email != nil {
		taken, err := h.Users.EmailExistsForOther(ctx, *upd.Email, id.UserID)
		if err != nil {
			apierr.Write(w, r, h.Log, apierr.Internal(err))
			return
		}
		if taken {
			apierr.Write(w, r, h.Log, apierr.Conflict(MsgEmailTaken))
			return
		}
	}

	user, err := h.Users.UpdateProfile(ctx, id.UserID, upd)
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		apierr.Write(w, r, h.Log, apierr.Conflict(MsgEmailTaken))
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		apierr.Write(w, r, h.Log, apierr.NotFound(MsgNoProfile))
		return
	case err != nil:
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}

	h.Log.Info("profile updated", zap.String("user_id", user.ID.Hex()))
	httpjson.Write(w, http.StatusOK, user)
}
