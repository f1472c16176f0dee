// internal/app/features/authapi/handler.go
package authapi

import (
	userstore "github.com/dalemusser/orderly/internal/app/store/users"
	"github.com/dalemusser/orderly/internal/app/system/auditlog"
	"github.com/dalemusser/orderly/internal/app/system/auth"
	"github.com/dalemusser/orderly/internal/app/system/ratelimit"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// WelcomeSender sends the registration email. It must not block.
type WelcomeSender interface {
	DispatchWelcome(u models.User)
}

// Config holds registration defaults.
type Config struct {
	DefaultProfilePicture string
	// BcryptCost is the password hashing cost. Zero means bcrypt.DefaultCost.
	BcryptCost int
}

// Handler serves /api/auth.
type Handler struct {
	Users   *userstore.Store
	Tokens  *auth.TokenManager
	Welcome WelcomeSender
	Limiter *ratelimit.LoginLimiter
	Audit   *auditlog.Logger
	Cfg     Config
	Log     *zap.Logger
}

// NewHandler builds the auth handler. limiter and audit may be nil.
func NewHandler(db *mongo.Database, tokens *auth.TokenManager, welcome WelcomeSender, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, cfg Config, logger *zap.Logger) *Handler {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Handler{
		Users:   userstore.New(db),
		Tokens:  tokens,
		Welcome: welcome,
		Limiter: limiter,
		Audit:   audit,
		Cfg:     cfg,
		Log:     logger,
	}
}
