// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/orderly/internal/app/store/audit"
	"github.com/dalemusser/orderly/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// ValidSetting reports whether s is one of All, DB, Log or Off.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Config selects where each event category is recorded.
type Config struct {
	// Auth covers login and registration events.
	Auth string
	// Membership covers team and member changes.
	Membership string
}

// Logger records audit events to MongoDB and the structured log. A nil
// *Logger is valid and records nothing.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// requestFields copies the request id, client IP and user agent onto the
// event. Requests that bypassed the request-id middleware get a fresh id.
func requestFields(r *http.Request, e *audit.Event) {
	if r == nil {
		return
	}
	e.RequestID = middleware.GetReqID(r.Context())
	if e.RequestID == "" {
		e.RequestID = uuid.NewString()
	}
	e.IP = ratelimit.ClientIP(r)
	e.UserAgent = r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.TeamID != nil {
		fields = append(fields, zap.String("team_id", event.TeamID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Record writes event to the destinations configured for its category.
// Storage failures are logged and never returned: auditing must not fail
// the request being audited.
func (l *Logger) Record(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryMembership:
		setting = l.config.Membership
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if setting == All || setting == DB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func oid(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

func authEvent(r *http.Request, eventType string, success bool) audit.Event {
	e := audit.Event{Category: audit.CategoryAuth, EventType: eventType, Success: success}
	requestFields(r, &e)
	return e
}

func membershipEvent(r *http.Request, eventType string, actorID primitive.ObjectID) audit.Event {
	e := audit.Event{
		Category:  audit.CategoryMembership,
		EventType: eventType,
		ActorID:   oid(actorID),
		Success:   true,
	}
	requestFields(r, &e)
	return e
}

// --- Authentication events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := authEvent(r, audit.EventLoginSuccess, true)
	e.UserID = oid(userID)
	l.Record(ctx, e)
}

// LoginFailedUserNotFound records the attempted email, since there is no
// user to attach the event to.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	e := authEvent(r, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": email}
	l.Record(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := authEvent(r, audit.EventLoginFailedWrongPass, false)
	e.UserID = oid(userID)
	e.FailureReason = "wrong password"
	l.Record(ctx, e)
}

func (l *Logger) LoginFailedInactive(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := authEvent(r, audit.EventLoginFailedInactive, false)
	e.UserID = oid(userID)
	e.FailureReason = "user inactive"
	l.Record(ctx, e)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, reason string) {
	e := authEvent(r, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = reason
	e.Details = map[string]string{"attempted_email": email}
	l.Record(ctx, e)
}

func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	e := authEvent(r, audit.EventUserRegistered, true)
	e.UserID = oid(userID)
	e.Details = map[string]string{"role": role}
	l.Record(ctx, e)
}

// --- Membership events ---

func (l *Logger) TeamCreated(ctx context.Context, r *http.Request, actorID, managerID, teamID primitive.ObjectID, teamName string) {
	e := membershipEvent(r, audit.EventTeamCreated, actorID)
	e.UserID = oid(managerID)
	e.TeamID = oid(teamID)
	e.Details = map[string]string{"team_name": teamName}
	l.Record(ctx, e)
}

func (l *Logger) EmployeeAdded(ctx context.Context, r *http.Request, actorID, userID, teamID primitive.ObjectID, role string) {
	e := membershipEvent(r, audit.EventEmployeeAdded, actorID)
	e.UserID = oid(userID)
	e.TeamID = oid(teamID)
	e.Details = map[string]string{"role": role}
	l.Record(ctx, e)
}

// SupervisorInvited records an invitation to the inviter's team. teamID is
// nil when the inviter has no team yet.
func (l *Logger) SupervisorInvited(ctx context.Context, r *http.Request, actorID, inviterID, userID primitive.ObjectID, teamID *primitive.ObjectID) {
	e := membershipEvent(r, audit.EventSupervisorInvited, actorID)
	e.UserID = oid(userID)
	e.TeamID = teamID
	e.Details = map[string]string{"inviter_id": inviterID.Hex()}
	l.Record(ctx, e)
}

func (l *Logger) MemberRemoved(ctx context.Context, r *http.Request, actorID, userID, teamID primitive.ObjectID) {
	e := membershipEvent(r, audit.EventMemberRemoved, actorID)
	e.UserID = oid(userID)
	e.TeamID = oid(teamID)
	l.Record(ctx, e)
}

// MemberTransferred is attached to the destination team.
func (l *Logger) MemberTransferred(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, fromTeam *primitive.ObjectID, toTeam primitive.ObjectID) {
	e := membershipEvent(r, audit.EventMemberTransferred, actorID)
	e.UserID = oid(userID)
	e.TeamID = oid(toTeam)
	from := "none"
	if fromTeam != nil {
		from = fromTeam.Hex()
	}
	e.Details = map[string]string{"from_team": from}
	l.Record(ctx, e)
}

func (l *Logger) MemberStatusChanged(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, status string) {
	e := membershipEvent(r, audit.EventMemberStatusChanged, actorID)
	e.UserID = oid(userID)
	e.Details = map[string]string{"status": status}
	l.Record(ctx, e)
}

// Reconciled records a reconciliation run. r is nil and actorID zero for
// scheduled runs.
func (l *Logger) Reconciled(ctx context.Context, r *http.Request, actorID primitive.ObjectID, runID string, counts map[string]int) {
	e := membershipEvent(r, audit.EventReconciled, actorID)
	e.Details = map[string]string{"run_id": runID}
	total := 0
	for k, n := range counts {
		e.Details[k] = strconv.Itoa(n)
		total += n
	}
	e.Details["total"] = strconv.Itoa(total)
	l.Record(ctx, e)
}
