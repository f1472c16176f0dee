package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	membershipstore "github.com/dalemusser/orderly/internal/app/store/memberships"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeJob struct {
	calls atomic.Int32
	err   error
	ran   chan struct{}
}

func (f *fakeJob) Reconcile(ctx context.Context) (membershipstore.ReconcileResult, error) {
	f.calls.Add(1)
	if f.ran != nil {
		select {
		case f.ran <- struct{}{}:
		default:
		}
	}
	if _, ok := ctx.Deadline(); !ok {
		return membershipstore.ReconcileResult{}, errors.New("reconcile ran without a deadline")
	}
	return membershipstore.ReconcileResult{RunID: "run-1", Linked: 2}, f.err
}

func TestNewReconciler_InvalidSchedule(t *testing.T) {
	for _, spec := range []string{"", "not a schedule", "* * *", "61 * * * *"} {
		if _, err := NewReconciler(&fakeJob{}, nil, zap.NewNop(), spec); err == nil {
			t.Errorf("NewReconciler(%q) expected error", spec)
		}
	}
}

func TestNewReconciler_ValidSchedules(t *testing.T) {
	for _, spec := range []string{"*/15 * * * *", "0 3 * * *", "@hourly", "@every 30m"} {
		if _, err := NewReconciler(&fakeJob{}, nil, zap.NewNop(), spec); err != nil {
			t.Errorf("NewReconciler(%q) unexpected error: %v", spec, err)
		}
	}
}

func TestRunOnce(t *testing.T) {
	job := &fakeJob{}
	w, err := NewReconciler(job, nil, zap.NewNop(), "@hourly")
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}

	res, err := w.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if res.Total() != 2 {
		t.Errorf("Total() = %d, want 2", res.Total())
	}
	if job.calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", job.calls.Load())
	}
}

func TestRunOnce_Error(t *testing.T) {
	job := &fakeJob{err: errors.New("boom")}
	w, err := NewReconciler(job, nil, zap.NewNop(), "@hourly")
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	if _, err := w.RunOnce(); err == nil {
		t.Error("expected RunOnce to return the job error")
	}
}

func TestRunOnce_SkipsWhileManualRunInProgress(t *testing.T) {
	job := &fakeJob{err: membershipstore.ErrReconcileRunning}
	core, logs := observer.New(zap.InfoLevel)
	w, err := NewReconciler(job, nil, zap.New(core), "@hourly")
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}
	if _, err := w.RunOnce(); !errors.Is(err, membershipstore.ErrReconcileRunning) {
		t.Fatalf("RunOnce error = %v, want ErrReconcileRunning", err)
	}
	if logs.FilterMessage("scheduled reconcile skipped; a manual run is in progress").Len() != 1 {
		t.Error("expected a skip log line")
	}
	if n := logs.FilterMessage("scheduled reconcile failed").Len(); n != 0 {
		t.Errorf("skip logged as failure %d times", n)
	}
}

func TestStartStop_RunsOnSchedule(t *testing.T) {
	job := &fakeJob{ran: make(chan struct{}, 1)}
	w, err := NewReconciler(job, nil, zap.NewNop(), "@every 1s")
	if err != nil {
		t.Fatalf("NewReconciler: %v", err)
	}

	w.Start()
	w.Start() // second Start is a no-op

	select {
	case <-job.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled reconcile did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.Stop(ctx)
	w.Stop(ctx) // second Stop is a no-op
}
