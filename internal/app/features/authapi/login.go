// internal/app/features/authapi/login.go
package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/httpjson"
	"github.com/dalemusser/orderly/internal/app/system/inputval"
	"github.com/dalemusser/orderly/internal/app/system/timeouts"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Login failure keeps one message for unknown email and wrong password so
// the response does not reveal which accounts exist.
const (
	MsgInvalidCredentials = "Invalid Username or Password"
	MsgAccountInactive    = "Your account is inactive, contact your manager"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Username must be a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type authResponse struct {
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Message string      `json:"message,omitempty"`
}

// HandleLogin exchanges credentials for a token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		apierr.Write(w, r, h.Log, apierr.Validation(err.Error()))
		return
	}
	if err := inputval.Struct(req); err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, req.Email); !ok {
			h.Log.Warn("login throttled", zap.String("email", req.Email))
			h.Audit.LoginFailedRateLimit(r.Context(), r, req.Email, msg)
			apierr.WriteStatus(w, http.StatusTooManyRequests, "too_many_requests", msg)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.Log.Debug("login: unknown email", zap.String("email", req.Email))
			h.Audit.LoginFailedUserNotFound(ctx, r, req.Email)
			writeInvalidCredentials(w)
			return
		}
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.Log.Debug("login: password mismatch", zap.String("user_id", user.ID.Hex()))
		h.Audit.LoginFailedWrongPassword(ctx, r, user.ID)
		writeInvalidCredentials(w)
		return
	}

	if !user.IsActive() {
		h.Audit.LoginFailedInactive(ctx, r, user.ID)
		apierr.Write(w, r, h.Log, apierr.Unauthorized(MsgAccountInactive))
		return
	}

	now := time.Now().UTC()
	if err := h.Users.TouchLastLogin(ctx, user.ID, now); err != nil {
		// The login itself succeeded; a stale lastLogin is not worth failing it.
		h.Log.Warn("login: lastLogin update failed", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	} else {
		user.LastLogin = now
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(req.Email)
	}

	h.Log.Info("user logged in", zap.String("user_id", user.ID.Hex()))
	h.Audit.LoginSuccess(ctx, r, user.ID)
	httpjson.Write(w, http.StatusOK, authResponse{Token: token, User: *user})
}

func writeInvalidCredentials(w http.ResponseWriter) {
	apierr.WriteStatus(w, http.StatusBadRequest, apierr.Code(apierr.KindValidation), MsgInvalidCredentials)
}
