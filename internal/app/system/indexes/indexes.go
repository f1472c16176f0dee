// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureTeams(ctx, db); err != nil {
		problems = append(problems, "teams: "+err.Error())
	}
	if err := ensureRegions(ctx, db); err != nil {
		problems = append(problems, "regions: "+err.Error())
	}
	if err := ensureTransferHistories(ctx, db); err != nil {
		problems = append(problems, "transferhistories: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isTrue(b *bool) bool { return b != nil && *b }

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

// duplicateFinder returns an aggregation that lists the duplicated values
// blocking a unique index, for the operator to run by hand.
func duplicateFinder(coll, field string) string {
	return fmt.Sprintf(`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`, coll, field)
}

func createErr(coll *mongo.Collection, m mongo.IndexModel, name string, err error) string {
	if isDuplicateKeyErr(err) && m.Options != nil && isTrue(m.Options.Unique) {
		keys := m.Keys.(bson.D)
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present); find them with:\n%s",
			coll.Name(), name, duplicateFinder(coll.Name(), keys[0].Key))
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet makes each desired index exist with the desired name and
// uniqueness. An index with the same keys but different options or name is
// dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", isTrue(desiredUnique)),
		}
		zap.L().Info("ensuring index", fields...)

		if ex, ok := listExisting(ctx, coll)[desiredSig]; ok {
			if isTrue(desiredUnique) == isTrue(ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Info("reusing existing index",
					append(fields, zap.String("took", time.Since(start).String()))...)
				continue
			}

			// Name or options differ: drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				zap.L().Warn("drop existing index failed", append(fields, zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				errs = append(errs, createErr(coll, m, desiredName, err))
				continue
			}
			zap.L().Info("index dropped and recreated",
				append(fields, zap.String("replaced", ex.Name), zap.String("took", time.Since(start).String()))...)
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			// Raced with another creator or a vendor reports keys differently.
			// Retry once against a fresh listing.
			if ex, ok := listExisting(ctx, coll)[desiredSig]; ok {
				if isTrue(desiredUnique) == isTrue(ex.Unique) {
					zap.L().Info("reusing existing index (post-conflict)", fields...)
					continue
				}
				if _, dropErr := coll.Indexes().DropOne(ctx, ex.Name); dropErr != nil {
					zap.L().Warn("failed to drop conflicting index", append(fields, zap.Error(dropErr))...)
				}
				created, err = coll.Indexes().CreateOne(ctx, m)
			}
		}
		if err != nil {
			zap.L().Warn("index ensure failed",
				append(fields, zap.String("took", time.Since(start).String()), zap.Error(err))...)
			errs = append(errs, createErr(coll, m, desiredName, err))
			continue
		}

		zap.L().Info("index ensured",
			append(fields, zap.String("created_name", created), zap.String("took", time.Since(start).String()))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email is the login identifier and must be unique.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Membership lookups and reconciliation scans.
		{
			Keys:    bson.D{{Key: "team", Value: 1}},
			Options: options.Index().SetName("idx_users_team"),
		},
		{
			Keys:    bson.D{{Key: "managerId", Value: 1}},
			Options: options.Index().SetName("idx_users_manager"),
		},
	})
}

func ensureTeams(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("teams")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_teams_name"),
		},
		// Managed-team resolution.
		{
			Keys:    bson.D{{Key: "managerId", Value: 1}},
			Options: options.Index().SetName("idx_teams_manager"),
		},
		// Reverse lookup from a user to the teams listing them.
		{
			Keys:    bson.D{{Key: "employees", Value: 1}},
			Options: options.Index().SetName("idx_teams_employees"),
		},
	})
}

func ensureRegions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("regions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "managerId", Value: 1}},
			Options: options.Index().SetName("idx_regions_manager"),
		},
	})
}

func ensureTransferHistories(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("transferhistories")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// A member's history, newest first.
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_transfers_user_createdat"),
		},
	})
}
