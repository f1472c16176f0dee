// internal/app/system/workers/reconciler.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	membershipstore "github.com/dalemusser/orderly/internal/app/store/memberships"
	"github.com/dalemusser/orderly/internal/app/system/auditlog"
	"github.com/dalemusser/orderly/internal/app/system/timeouts"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReconcileJob is the membership repair pass run on a schedule.
type ReconcileJob interface {
	Reconcile(ctx context.Context) (membershipstore.ReconcileResult, error)
}

// Reconciler runs a ReconcileJob on a cron schedule. Runs never overlap: a
// tick that fires while the previous run is still going is skipped.
type Reconciler struct {
	job      ReconcileJob
	audit    *auditlog.Logger
	log      *zap.Logger
	schedule string
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewReconciler validates schedule (standard five-field cron syntax or a
// descriptor such as "@hourly" or "@every 30m") and registers job on it.
// Runs that repair something are recorded on audit, which may be nil.
func NewReconciler(job ReconcileJob, audit *auditlog.Logger, logger *zap.Logger, schedule string) (*Reconciler, error) {
	w := &Reconciler{
		job:      job,
		audit:    audit,
		log:      logger,
		schedule: schedule,
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	w.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := w.cron.AddFunc(schedule, func() { w.RunOnce() }); err != nil {
		return nil, fmt.Errorf("reconcile schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Start begins the schedule.
func (w *Reconciler) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.cron.Start()
	w.log.Info("reconcile worker started", zap.String("schedule", w.schedule))
}

// Stop halts the schedule and waits for a run in progress, or for ctx.
func (w *Reconciler) Stop(ctx context.Context) {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	done := w.cron.Stop()
	select {
	case <-done.Done():
		w.log.Info("reconcile worker stopped")
	case <-ctx.Done():
		w.log.Warn("reconcile worker stop timed out; a run may still be in progress")
	}
}

// RunOnce performs one reconcile pass bounded by timeouts.Batch.
func (w *Reconciler) RunOnce() (membershipstore.ReconcileResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()

	res, err := w.job.Reconcile(ctx)
	if errors.Is(err, membershipstore.ErrReconcileRunning) {
		w.log.Info("scheduled reconcile skipped; a manual run is in progress")
		return res, err
	}
	if err != nil {
		w.log.Error("scheduled reconcile failed", zap.String("run_id", res.RunID), zap.Error(err))
		return res, err
	}
	if res.Total() > 0 {
		w.log.Info("scheduled reconcile repaired memberships",
			zap.String("run_id", res.RunID),
			zap.Int("repairs", res.Total()))
		w.audit.Reconciled(ctx, nil, primitive.NilObjectID, res.RunID, res.Counts())
	}
	return res, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
