package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/orderly/internal/app/system/indexes"
	"github.com/dalemusser/orderly/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(ctx context.Context, t *testing.T, c *mongo.Collection) map[string]bool {
	t.Helper()
	cur, err := c.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupEmptyTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupEmptyTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := map[string][]string{
		"users":             {"uniq_users_email", "idx_users_team", "idx_users_manager"},
		"teams":             {"uniq_teams_name", "idx_teams_manager", "idx_teams_employees"},
		"regions":           {"idx_regions_manager"},
		"transferhistories": {"idx_transfers_user_createdat"},
	}
	for coll, want := range tests {
		got := indexNames(ctx, t, db.Collection(coll))
		for _, name := range want {
			if !got[name] {
				t.Errorf("expected index %q to exist on %s collection", name, coll)
			}
		}
	}
}

func TestEnsureAll_RenamesMismatchedIndex(t *testing.T) {
	db := testutil.SetupEmptyTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Same keys as idx_teams_manager under a legacy name.
	_, err := db.Collection("teams").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "managerId", Value: 1}},
		Options: options.Index().SetName("managerId_1_legacy"),
	})
	if err != nil {
		t.Fatalf("create legacy index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(ctx, t, db.Collection("teams"))
	if got["managerId_1_legacy"] {
		t.Error("legacy index should have been replaced")
	}
	if !got["idx_teams_manager"] {
		t.Error("expected idx_teams_manager after rename")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupEmptyTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("teams").InsertOne(ctx, bson.M{"name": "North"}); err != nil {
		t.Fatalf("Insert team failed: %v", err)
	}
	if _, err := db.Collection("teams").InsertOne(ctx, bson.M{"name": "North"}); err == nil {
		t.Error("expected duplicate key error for unique index on teams.name")
	}
}

func TestEnsureAll_ReportsDuplicates(t *testing.T) {
	db := testutil.SetupEmptyTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	for i := 0; i < 2; i++ {
		if _, err := users.InsertOne(ctx, bson.M{"email": "dup@example.com"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db); err == nil {
		t.Fatal("expected EnsureAll to fail when users.email has duplicates")
	}
}
