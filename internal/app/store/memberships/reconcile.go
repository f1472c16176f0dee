// internal/app/store/memberships/reconcile.go
package membershipstore

import (
	"context"
	"errors"

	"github.com/dalemusser/orderly/internal/app/system/metrics"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Repair kinds reported by Reconcile.
const (
	RepairLinked     = "linked"
	RepairPulled     = "pulled"
	RepairCleared    = "cleared"
	RepairBackfilled = "backfilled"
)

// ErrReconcileRunning is returned when another Reconcile call on the same
// Store has not finished.
var ErrReconcileRunning = errors.New("membership reconcile already running")

// ReconcileResult counts the repairs one Reconcile run made.
type ReconcileResult struct {
	RunID      string `json:"runId"`
	Linked     int    `json:"linked"`
	Pulled     int    `json:"pulled"`
	Cleared    int    `json:"cleared"`
	Backfilled int    `json:"backfilled"`
}

// Total is the number of repairs made.
func (r ReconcileResult) Total() int {
	return r.Linked + r.Pulled + r.Cleared + r.Backfilled
}

// Counts returns the repairs keyed by kind, as used for metrics labels.
func (r ReconcileResult) Counts() map[string]int {
	return map[string]int{
		RepairLinked:     r.Linked,
		RepairPulled:     r.Pulled,
		RepairCleared:    r.Cleared,
		RepairBackfilled: r.Backfilled,
	}
}

// Reconcile repairs the two-sided membership references left inconsistent
// by an interrupted multi-write:
//   - a user whose team does not list them is added to its employees
//   - an employee whose user references neither the team as team nor as
//     parentTeam is pulled (this includes ids of missing users)
//   - a team reference to a team that no longer exists is cleared
//   - a team's manager lacking the team in their managed set gets it back
//
// Every repair is idempotent; running Reconcile twice makes no further
// changes. Scheduled and manual runs share one Store, so a call made while
// another is in progress returns ErrReconcileRunning.
func (s *Store) Reconcile(ctx context.Context) (ReconcileResult, error) {
	if !s.reconcileMu.TryLock() {
		return ReconcileResult{}, ErrReconcileRunning
	}
	defer s.reconcileMu.Unlock()

	res := ReconcileResult{RunID: uuid.NewString()}
	log := s.log.With(zap.String("run_id", res.RunID))

	rosters, err := s.teams.ListRosters(ctx)
	if err != nil {
		return res, err
	}
	refs, err := s.users.ListTeamRefs(ctx)
	if err != nil {
		return res, err
	}

	type teamState struct {
		employees map[primitive.ObjectID]bool
	}
	teams := make(map[primitive.ObjectID]teamState, len(rosters))
	for _, r := range rosters {
		st := teamState{employees: make(map[primitive.ObjectID]bool, len(r.Employees))}
		for _, e := range r.Employees {
			st.employees[e] = true
		}
		teams[r.ID] = st
	}

	// Users pointing at a team: link or collect dangling.
	var dangling []primitive.ObjectID
	seenDangling := map[primitive.ObjectID]bool{}
	byUser := make(map[primitive.ObjectID]struct{ team, parent *primitive.ObjectID }, len(refs))
	for _, ref := range refs {
		byUser[ref.ID] = struct{ team, parent *primitive.ObjectID }{ref.Team, ref.ParentTeam}
		if ref.Team == nil {
			continue
		}
		st, ok := teams[*ref.Team]
		if !ok {
			if !seenDangling[*ref.Team] {
				seenDangling[*ref.Team] = true
				dangling = append(dangling, *ref.Team)
			}
			continue
		}
		if st.employees[ref.ID] {
			continue
		}
		if err := s.teams.AddEmployee(ctx, *ref.Team, ref.ID); err != nil {
			return res, err
		}
		st.employees[ref.ID] = true
		res.Linked++
		log.Info("reconcile: linked user into team",
			zap.String("user_id", ref.ID.Hex()),
			zap.String("team_id", ref.Team.Hex()))
	}

	// Employees whose user no longer points back.
	for _, r := range rosters {
		var stale []primitive.ObjectID
		for _, e := range r.Employees {
			u, ok := byUser[e]
			if ok && ((u.team != nil && *u.team == r.ID) || (u.parent != nil && *u.parent == r.ID)) {
				continue
			}
			stale = append(stale, e)
		}
		if len(stale) == 0 {
			continue
		}
		if err := s.teams.RemoveEmployee(ctx, r.ID, stale...); err != nil {
			return res, err
		}
		res.Pulled += len(stale)
		log.Info("reconcile: pulled stale employees",
			zap.String("team_id", r.ID.Hex()),
			zap.Int("count", len(stale)))
	}

	if len(dangling) > 0 {
		n, err := s.users.ClearTeamRefs(ctx, dangling)
		if err != nil {
			return res, err
		}
		res.Cleared = int(n)
		log.Info("reconcile: cleared dangling team references", zap.Int64("count", n))
	}

	for _, r := range rosters {
		if r.ManagerID == nil {
			continue
		}
		added, err := s.users.AddManagedTeam(ctx, *r.ManagerID, r.ID)
		if err != nil {
			return res, err
		}
		if added {
			res.Backfilled++
		}
	}

	for kind, n := range res.Counts() {
		metrics.AddRepairs(kind, n)
	}

	log.Info("reconcile finished",
		zap.Int("linked", res.Linked),
		zap.Int("pulled", res.Pulled),
		zap.Int("cleared", res.Cleared),
		zap.Int("backfilled", res.Backfilled))
	return res, nil
}
