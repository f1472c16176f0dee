package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{apierr.Conflict("exists"), "conflict"},
		{apierr.Unauthorized("no"), "unauthorized"},
		{errors.New("boom"), "internal_error"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/team/{userId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/team/{userId}", "418"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/team/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/team/{userId}", "418"))

	if after-before != 2 {
		t.Errorf("counter delta = %v, want 2", after-before)
	}
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(membershipOps.WithLabelValues("create_team", "conflict"))
	ObserveMembershipOp("create_team", apierr.Conflict("dup"))
	if got := testutil.ToFloat64(membershipOps.WithLabelValues("create_team", "conflict")); got-before != 1 {
		t.Errorf("membership counter delta = %v", got-before)
	}

	before = testutil.ToFloat64(notifications.WithLabelValues("welcome", "failed"))
	ObserveNotification("welcome", errors.New("smtp down"))
	if got := testutil.ToFloat64(notifications.WithLabelValues("welcome", "failed")); got-before != 1 {
		t.Errorf("notification counter delta = %v", got-before)
	}

	before = testutil.ToFloat64(reconcileRepairs.WithLabelValues("linked"))
	AddRepairs("linked", 0)
	AddRepairs("linked", 3)
	if got := testutil.ToFloat64(reconcileRepairs.WithLabelValues("linked")); got-before != 3 {
		t.Errorf("repairs counter delta = %v", got-before)
	}
}
