package profile_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/orderly/internal/app/features/profile"
	"github.com/dalemusser/orderly/internal/domain/models"
	"github.com/dalemusser/orderly/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*profile.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return profile.NewHandler(db, zap.NewNop()), db
}

func TestServeProfile_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeProfile(rec, testutil.NewRequest("GET", "/api/profile"))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestServeProfile_PopulatesRegion(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	u := fixtures.CreateUser(ctx, "Mona", "mona@example.com", models.RoleSalesSupervisor)
	region := fixtures.CreateRegion(ctx, "Delta", &u)

	rec := httptest.NewRecorder()
	h.ServeProfile(rec, testutil.WithUser(testutil.NewRequest("GET", "/api/profile"), u.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		ID       string         `json:"_id"`
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Region   *models.Region `json:"region"`
	}
	testutil.DecodeJSON(t, rec, &body)

	if body.Email != "mona@example.com" {
		t.Errorf("email = %q", body.Email)
	}
	if body.Password != "" {
		t.Error("profile leaked the password hash")
	}
	if body.Region == nil || body.Region.ID != region.ID || body.Region.Name != "Delta" {
		t.Errorf("region = %+v, want populated Delta", body.Region)
	}
}

func TestServeProfile_NoRegion(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := testutil.NewFixtures(t, db).CreateUser(ctx, "Solo", "solo@example.com", models.RoleMedicalRep)

	rec := httptest.NewRecorder()
	h.ServeProfile(rec, testutil.WithUser(testutil.NewRequest("GET", "/api/profile"), u.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	testutil.DecodeJSON(t, rec, &body)
	if body["region"] != nil {
		t.Errorf("region = %v, want null", body["region"])
	}
}

func TestServeProfile_MissingUser(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeProfile(rec, testutil.WithUser(testutil.NewRequest("GET", "/api/profile"), primitive.NewObjectID()))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleUpdate_Partial(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	u := fixtures.CreateUser(ctx, "Old", "old@example.com", models.RoleMedicalRep)

	req := testutil.NewJSONRequest(t, "PUT", "/api/profile", map[string]string{
		"firstName": "  New  ",
		"lastName":  "",
		"email":     "NEW@example.com",
	})
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, testutil.WithUser(req, u.ID))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got := fixtures.ReloadUser(ctx, u.ID)
	if got.FirstName != "New" {
		t.Errorf("firstName = %q, want New", got.FirstName)
	}
	if got.LastName != "Tester" {
		t.Errorf("blank lastName should be ignored, got %q", got.LastName)
	}
	if got.Email != "new@example.com" {
		t.Errorf("email = %q, want normalized", got.Email)
	}
	if got.Role != models.RoleMedicalRep || got.Area != "Cairo" {
		t.Error("fields outside the profile set were changed")
	}
}

func TestHandleUpdate_Rejections(t *testing.T) {
	h, db := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	u := fixtures.CreateUser(ctx, "Me", "me@example.com", models.RoleMedicalRep)
	fixtures.CreateUser(ctx, "Other", "taken@example.com", models.RoleMedicalRep)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"nothing to update", map[string]string{"firstName": " "}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "nope"}, http.StatusBadRequest},
		{"email taken", map[string]string{"email": "taken@example.com"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleUpdate(rec, testutil.WithUser(testutil.NewJSONRequest(t, "PUT", "/api/profile", tt.body), u.ID))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if got := fixtures.ReloadUser(ctx, u.ID); got.Email != "me@example.com" {
		t.Errorf("email changed to %q after rejected updates", got.Email)
	}
}
