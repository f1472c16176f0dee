package regionstore_test

import (
	"testing"

	regionstore "github.com/dalemusser/orderly/internal/app/store/regions"
	"github.com/dalemusser/orderly/internal/domain/models"
	"github.com/dalemusser/orderly/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := regionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Region{Name: "  Upper   Egypt "})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "Upper Egypt" {
		t.Errorf("Name = %q", created.Name)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != created.Name || got.Teams == nil {
		t.Errorf("unexpected region %+v", got)
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_Create_BlankName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := regionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Region{Name: "   "}); err == nil {
		t.Error("expected error for blank name")
	}
}
