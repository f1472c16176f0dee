// internal/app/features/authapi/register.go
package authapi

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/orderly/internal/app/store/users"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/authz"
	"github.com/dalemusser/orderly/internal/app/system/httpjson"
	"github.com/dalemusser/orderly/internal/app/system/inputval"
	"github.com/dalemusser/orderly/internal/app/system/normalize"
	"github.com/dalemusser/orderly/internal/app/system/timeouts"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MsgUserCreated = "User created successfully"
	MsgUserExists  = "User already exists"

	MsgRoleNotSelfService = "Admin and Country Manager accounts must be created by an existing Admin or Country Manager"
)

type registerRequest struct {
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	Phone          string `json:"phone" validate:"max=32"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture" validate:"max=2048"`
	Area           string `json:"area" validate:"required,max=100"`
}

// HandleRegister creates an account, returns a token for it and sends the
// welcome email in the background.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apierr.Write(w, r, h.Log, apierr.Validation(err.Error()))
		return
	}
	if err := inputval.Struct(req); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		apierr.Write(w, r, h.Log, apierr.Validation(err.Error()))
		return
	}
	if !authz.CanSelfRegister(role) {
		apierr.Write(w, r, h.Log, apierr.Validation(MsgRoleNotSelfService))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	exists, err := h.Users.EmailExists(ctx, req.Email)
	if err != nil {
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}
	if exists {
		apierr.Write(w, r, h.Log, apierr.Conflict(MsgUserExists))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.Cfg.BcryptCost)
	if err != nil {
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}

	picture := normalize.URL(req.ProfilePicture)
	if picture == "" {
		picture = h.Cfg.DefaultProfilePicture
	}

	user, err := h.Users.Create(ctx, models.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Phone:          req.Phone,
		Role:           role,
		ProfilePicture: picture,
		Area:           req.Area,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		// Lost a race with a concurrent registration.
		apierr.Write(w, r, h.Log, apierr.Conflict(MsgUserExists))
		return
	case errors.Is(err, userstore.ErrAreaRequired):
		apierr.Write(w, r, h.Log, apierr.Validation("area is required"))
		return
	case err != nil:
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}

	h.Log.Info("user registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("role", string(user.Role)))

	h.Audit.UserRegistered(ctx, r, user.ID, string(user.Role))
	h.Welcome.DispatchWelcome(user)
	httpjson.Write(w, http.StatusOK, authResponse{Token: token, User: user, Message: MsgUserCreated})
}
