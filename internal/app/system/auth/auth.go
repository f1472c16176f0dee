// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Token constants                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	// HeaderName carries the signed token on protected requests.
	HeaderName = "x-auth-token"

	// MsgMissingToken is returned verbatim when no token is presented.
	MsgMissingToken = "You are not authorized to perform this operation, login or contact your provider"
)

var (
	ErrEmptySecret     = errors.New("jwt secret is empty")
	ErrMissingIdentity = errors.New("token is missing user identity")
)

/*─────────────────────────────────────────────────────────────────────────────*
| Identity in request context                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// Identity is the decoded token subject attached to a verified request.
type Identity struct {
	UserID primitive.ObjectID
}

type ctxKey string

const identityKey ctxKey = "identity"

// CurrentIdentity returns the identity attached by Require and a found flag.
func CurrentIdentity(r *http.Request) (Identity, bool) {
	return IdentityFrom(r.Context())
}

// IdentityFrom is CurrentIdentity for code that only has a context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// WithTestIdentity attaches an identity to r without a token.
// Handler tests use it to bypass Require.
func WithTestIdentity(r *http.Request, userID primitive.ObjectID) *http.Request {
	return r.WithContext(WithIdentity(r.Context(), Identity{UserID: userID}))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token manager                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// claims mirrors the payload shape existing clients decode: {"user":{"id":…}}.
type claims struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 tokens with a single secret.
// There is no refresh flow and no revocation list: a token is valid for its
// whole signed lifetime.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

// NewTokenManager returns a manager for secret. A zero ttl issues tokens
// without an expiry.
func NewTokenManager(secret string, ttl time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	if len(secret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    logger,
	}, nil
}

// Issue signs a token for userID.
func (m *TokenManager) Issue(userID primitive.ObjectID) (string, error) {
	now := m.now()
	c := claims{}
	c.User.ID = userID.Hex()
	c.IssuedAt = jwt.NewNumericDate(now)
	if m.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

// Verify checks the signature and registered claims of token and returns
// its identity. Verification errors from the jwt library are returned
// unchanged so their message can be shown to the caller.
func (m *TokenManager) Verify(token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return Identity{}, err
	}

	oid, err := primitive.ObjectIDFromHex(c.User.ID)
	if err != nil {
		return Identity{}, ErrMissingIdentity
	}
	return Identity{UserID: oid}, nil
}

// Require rejects requests without a valid token in HeaderName and attaches
// the identity of valid ones.
//   - no token: 401 with MsgMissingToken
//   - bad token: 401 with the verification error message
func (m *TokenManager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(HeaderName))
		if token == "" {
			apierr.WriteStatus(w, http.StatusUnauthorized, apierr.Code(apierr.KindUnauthorized), MsgMissingToken)
			return
		}

		id, err := m.Verify(token)
		if err != nil {
			m.log.Debug("token rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			apierr.WriteStatus(w, http.StatusUnauthorized, apierr.Code(apierr.KindUnauthorized), err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
