package auditlog_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/orderly/internal/app/store/audit"
	"github.com/dalemusser/orderly/internal/app/system/auditlog"
	"github.com/dalemusser/orderly/internal/testutil"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/api/auth/login", nil)

	// All no-ops.
	logger.Record(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID())
	logger.MemberRemoved(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID())
}

func TestValidSetting(t *testing.T) {
	for _, s := range []string{auditlog.All, auditlog.DB, auditlog.Log, auditlog.Off} {
		if !auditlog.ValidSetting(s) {
			t.Errorf("ValidSetting(%q) = false", s)
		}
	}
	for _, s := range []string{"", "ALL", "both"} {
		if auditlog.ValidSetting(s) {
			t.Errorf("ValidSetting(%q) = true", s)
		}
	}
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		name      string
		setting   string
		wantDB    int
		wantLines int
	}{
		{"all", auditlog.All, 1, 1},
		{"db", auditlog.DB, 1, 0},
		{"log", auditlog.Log, 0, 1},
		{"off", auditlog.Off, 0, 0},
		{"blank means all", "", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			store := audit.New(db)
			core, logs := observer.New(zap.InfoLevel)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			logger := auditlog.New(store, zap.New(core), auditlog.Config{Auth: tt.setting, Membership: auditlog.Off})
			userID := primitive.NewObjectID()
			logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/api/auth/login", nil), userID)

			events, err := store.GetByUser(ctx, userID, 10)
			if err != nil {
				t.Fatalf("GetByUser failed: %v", err)
			}
			if len(events) != tt.wantDB {
				t.Errorf("stored %d events, want %d", len(events), tt.wantDB)
			}
			if n := logs.FilterMessage("audit event").Len(); n != tt.wantLines {
				t.Errorf("logged %d lines, want %d", n, tt.wantLines)
			}
		})
	}
}

func TestLogger_CategoriesAreIndependent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.Off, Membership: auditlog.DB})
	req := httptest.NewRequest("PUT", "/api/team/status/x", nil)
	userID := primitive.NewObjectID()

	logger.LoginFailedWrongPassword(ctx, req, userID)
	logger.MemberStatusChanged(ctx, req, primitive.NewObjectID(), userID, "Inactive")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventMemberStatusChanged {
		t.Errorf("event type = %q", events[0].EventType)
	}
	if events[0].Details["status"] != "Inactive" {
		t.Errorf("details = %v", events[0].Details)
	}
}

func TestLogger_RequestContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.DB, Membership: auditlog.DB})

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	req.Header.Set("User-Agent", "OrderlyApp/2.1")
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-42"))

	logger.LoginFailedUserNotFound(ctx, req, "ghost@test.com")

	events, err := store.Query(ctx, audit.QueryFilter{EventType: audit.EventLoginFailedUserNotFound})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.RequestID != "req-42" {
		t.Errorf("RequestID = %q", e.RequestID)
	}
	if e.IP != "203.0.113.7" {
		t.Errorf("IP = %q", e.IP)
	}
	if e.UserAgent != "OrderlyApp/2.1" {
		t.Errorf("UserAgent = %q", e.UserAgent)
	}
	if e.Success {
		t.Error("failed login recorded as success")
	}
	if e.Details["attempted_email"] != "ghost@test.com" {
		t.Errorf("details = %v", e.Details)
	}
}

func TestLogger_MembershipEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Membership: auditlog.DB})
	req := httptest.NewRequest("PUT", "/api/team/transfer/x", nil)

	actor := primitive.NewObjectID()
	member := primitive.NewObjectID()
	from := primitive.NewObjectID()
	to := primitive.NewObjectID()

	logger.MemberTransferred(ctx, req, actor, member, &from, to)
	logger.MemberTransferred(ctx, req, actor, member, nil, from)
	logger.Reconciled(ctx, nil, primitive.NilObjectID, "run-1", map[string]int{"linked": 2, "pulled": 1})

	got, err := store.Query(ctx, audit.QueryFilter{TeamID: &to})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].Details["from_team"] != from.Hex() {
		t.Fatalf("unexpected transfer events: %+v", got)
	}
	if got[0].ActorID == nil || *got[0].ActorID != actor {
		t.Errorf("ActorID = %v, want %s", got[0].ActorID, actor.Hex())
	}

	got, err = store.Query(ctx, audit.QueryFilter{TeamID: &from})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].Details["from_team"] != "none" {
		t.Fatalf("unexpected first-assignment events: %+v", got)
	}

	got, err = store.Query(ctx, audit.QueryFilter{EventType: audit.EventReconciled})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 reconcile event, got %d", len(got))
	}
	rec := got[0]
	if rec.ActorID != nil || rec.RequestID != "" {
		t.Errorf("scheduled run should carry no actor or request: %+v", rec)
	}
	if rec.Details["total"] != "3" || rec.Details["run_id"] != "run-1" {
		t.Errorf("details = %v", rec.Details)
	}
}
