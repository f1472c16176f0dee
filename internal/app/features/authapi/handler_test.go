package authapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/orderly/internal/app/features/authapi"
	"github.com/dalemusser/orderly/internal/app/store/audit"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/auditlog"
	"github.com/dalemusser/orderly/internal/app/system/auth"
	"github.com/dalemusser/orderly/internal/app/system/ratelimit"
	"github.com/dalemusser/orderly/internal/domain/models"
	"github.com/dalemusser/orderly/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-test-secret-test-secret!"

type welcomeRecorder struct {
	mu    sync.Mutex
	users []models.User
}

func (w *welcomeRecorder) DispatchWelcome(u models.User) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.users = append(w.users, u)
}

func (w *welcomeRecorder) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.users)
}

type authBody struct {
	Token   string         `json:"token"`
	User    map[string]any `json:"user"`
	Message string         `json:"message"`
}

func newTestHandler(t *testing.T, limiter *ratelimit.LoginLimiter) (*authapi.Handler, *mongo.Database, *welcomeRecorder) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	tokens, err := auth.NewTokenManager(testSecret, time.Hour, logger)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	welcome := &welcomeRecorder{}
	trail := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.DB})
	h := authapi.NewHandler(db, tokens, welcome, limiter, trail, authapi.Config{
		DefaultProfilePicture: "https://example.com/avatar.png",
		BcryptCost:            bcrypt.MinCost,
	}, logger)
	return h, db, welcome
}

func register(t *testing.T, h *authapi.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleRegister(rec, testutil.NewJSONRequest(t, "POST", "/api/auth/register", body))
	return rec
}

func login(t *testing.T, h *authapi.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, testutil.NewJSONRequest(t, "POST", "/api/auth/login",
		map[string]string{"email": email, "password": password}))
	return rec
}

func validRegistration(email string) map[string]any {
	return map[string]any{
		"firstName": "Nour",
		"lastName":  "Hassan",
		"email":     email,
		"password":  "pw-123456",
		"phone":     "+20 100 000 0000",
		"area":      "Giza",
	}
}

func TestRegisterThenLogin(t *testing.T) {
	h, _, welcome := newTestHandler(t, nil)

	rec := register(t, h, validRegistration("a@x.com"))
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var reg authBody
	testutil.DecodeJSON(t, rec, &reg)
	if reg.Token == "" {
		t.Error("register returned no token")
	}
	if reg.Message != authapi.MsgUserCreated {
		t.Errorf("message = %q, want %q", reg.Message, authapi.MsgUserCreated)
	}
	if _, ok := reg.User["password"]; ok {
		t.Error("register response leaked the password hash")
	}
	if reg.User["role"] != string(models.RoleMedicalRep) {
		t.Errorf("role = %v, want default role", reg.User["role"])
	}
	if reg.User["profilePicture"] != "https://example.com/avatar.png" {
		t.Errorf("profilePicture = %v, want default", reg.User["profilePicture"])
	}
	if welcome.count() != 1 {
		t.Errorf("welcome dispatched %d times, want 1", welcome.count())
	}

	rec = login(t, h, "a@x.com", "pw-123456")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var in authBody
	testutil.DecodeJSON(t, rec, &in)
	if in.Token == "" {
		t.Error("login returned no token")
	}
	id, err := h.Tokens.Verify(in.Token)
	if err != nil {
		t.Fatalf("Verify login token: %v", err)
	}
	if id.UserID.Hex() != reg.User["_id"] {
		t.Errorf("token user = %s, want %v", id.UserID.Hex(), reg.User["_id"])
	}

	rec = login(t, h, "a@x.com", "wrong")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong password status = %d, want 400", rec.Code)
	}
	var failed map[string]any
	testutil.DecodeJSON(t, rec, &failed)
	if failed["message"] != authapi.MsgInvalidCredentials {
		t.Errorf("message = %v, want %q", failed["message"], authapi.MsgInvalidCredentials)
	}
	if _, ok := failed["token"]; ok {
		t.Error("failed login returned a token")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, db, _ := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if rec := register(t, h, validRegistration("dup@x.com")); rec.Code != http.StatusOK {
		t.Fatalf("first register status = %d", rec.Code)
	}
	second := validRegistration("DUP@x.com")
	second["firstName"] = "Impostor"
	rec := register(t, h, second)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409", rec.Code)
	}

	var u models.User
	if err := db.Collection("users").FindOne(ctx, map[string]any{"email": "dup@x.com"}).Decode(&u); err != nil {
		t.Fatalf("find first user: %v", err)
	}
	if u.FirstName != "Nour" {
		t.Errorf("first user was modified: firstName = %q", u.FirstName)
	}
}

func TestRegister_Validation(t *testing.T) {
	h, _, welcome := newTestHandler(t, nil)

	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"bad email", func(b map[string]any) { b["email"] = "not-an-email" }},
		{"missing password", func(b map[string]any) { delete(b, "password") }},
		{"missing area", func(b map[string]any) { delete(b, "area") }},
		{"unknown role", func(b map[string]any) { b["role"] = "Wizard" }},
		{"admin role", func(b map[string]any) { b["role"] = "Admin" }},
		{"country manager role", func(b map[string]any) { b["role"] = "country manager" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validRegistration("v@x.com")
			tt.mutate(body)
			rec := register(t, h, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
		})
	}
	if welcome.count() != 0 {
		t.Errorf("welcome dispatched for rejected registrations")
	}
}

func TestLogin_Validation(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	rec := login(t, h, "nope", "pw")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body apierr.Response
	testutil.DecodeJSON(t, rec, &body)
	if body.Message != "Username must be a valid email" {
		t.Errorf("message = %q", body.Message)
	}

	rec = login(t, h, "a@x.com", "")
	testutil.DecodeJSON(t, rec, &body)
	if rec.Code != http.StatusBadRequest || body.Message != "Password is required" {
		t.Errorf("missing password: status = %d message = %q", rec.Code, body.Message)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	h, _, _ := newTestHandler(t, nil)

	rec := login(t, h, "ghost@x.com", "whatever")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), authapi.MsgInvalidCredentials) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	h, db, _ := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	fixtures.CreateInactiveUser(ctx, "Sleepy", "sleepy@x.com", models.RoleMedicalRep)

	rec := login(t, h, "sleepy@x.com", testutil.DefaultPassword)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "token") {
		t.Error("inactive login returned a token")
	}
}

func TestLogin_UpdatesLastLogin(t *testing.T) {
	h, db, _ := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	u := fixtures.CreateUser(ctx, "Active", "active@x.com", models.RoleKAM)

	before := fixtures.ReloadUser(ctx, u.ID).LastLogin
	time.Sleep(5 * time.Millisecond)

	if rec := login(t, h, "active@x.com", testutil.DefaultPassword); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	after := fixtures.ReloadUser(ctx, u.ID).LastLogin
	if !after.After(before) {
		t.Errorf("lastLogin not advanced: before %v after %v", before, after)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := ratelimit.NewLoginLimiter(2)
	defer limiter.Close()
	h, _, _ := newTestHandler(t, limiter)

	for i := 0; i < 2; i++ {
		login(t, h, "ghost@x.com", "x")
	}
	rec := login(t, h, "ghost@x.com", "x")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestLogin_AuditTrail(t *testing.T) {
	h, db, _ := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if rec := register(t, h, validRegistration("trail@x.com")); rec.Code != http.StatusOK {
		t.Fatalf("register status = %d", rec.Code)
	}
	login(t, h, "trail@x.com", "pw-123456")
	login(t, h, "trail@x.com", "nope")
	login(t, h, "ghost@x.com", "pw-123456")

	store := audit.New(db)
	for _, tc := range []struct {
		eventType string
		want      int64
	}{
		{audit.EventUserRegistered, 1},
		{audit.EventLoginSuccess, 1},
		{audit.EventLoginFailedWrongPass, 1},
		{audit.EventLoginFailedUserNotFound, 1},
	} {
		n, err := store.Count(ctx, audit.QueryFilter{Category: audit.CategoryAuth, EventType: tc.eventType})
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != tc.want {
			t.Errorf("%s: %d events, want %d", tc.eventType, n, tc.want)
		}
	}

	failed, err := store.GetFailedLogins(ctx, time.Now().Add(-time.Minute), 10)
	if err != nil {
		t.Fatalf("GetFailedLogins: %v", err)
	}
	if len(failed) != 2 {
		t.Errorf("failed logins = %d, want 2", len(failed))
	}
}

func TestRegister_OrgWideRolesNotSelfService(t *testing.T) {
	h, db, _ := newTestHandler(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	body := validRegistration("boss@x.com")
	body["role"] = "Admin"
	rec := register(t, h, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
	var resp apierr.Response
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Message != authapi.MsgRoleNotSelfService {
		t.Errorf("message = %q", resp.Message)
	}
	if strings.Contains(rec.Body.String(), "token") {
		t.Errorf("rejected registration returned a token: %s", rec.Body.String())
	}

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": "boss@x.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("stored %d users for a rejected registration", n)
	}

	// Managing roles below the org-wide tier remain open.
	body = validRegistration("sup@x.com")
	body["role"] = "Sales Supervisor"
	if rec := register(t, h, body); rec.Code != http.StatusOK {
		t.Errorf("Sales Supervisor registration: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
