package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plaintext password of every fixture user.
const DefaultPassword = "secret-password"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts an active user with DefaultPassword and no team.
func (f *Fixtures) CreateUser(ctx context.Context, firstName, email string, role models.Role) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	u := models.User{
		ID:                 primitive.NewObjectID(),
		FirstName:          firstName,
		LastName:           "Tester",
		Email:              email,
		PasswordHash:       string(hash),
		Phone:              "+201000000000",
		Role:               role,
		Area:               "Cairo",
		MonthlyAchievement: []float64{},
		MonthlySales:       []float64{},
		Expenses:           []primitive.ObjectID{},
		Forecast:           []primitive.ObjectID{},
		Tasks:              []primitive.ObjectID{},
		ExpoPushTokens:     []string{},
		Status:             models.StatusActive,
		LastLogin:          now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateInactiveUser inserts a user whose status is Inactive.
func (f *Fixtures) CreateInactiveUser(ctx context.Context, firstName, email string, role models.Role) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, firstName, email, role)
	f.update("users", u.ID, map[string]any{"status": models.StatusInactive})
	u.Status = models.StatusInactive
	return u
}

// CreateTeam inserts a team managed by manager (nil for none) and records it
// in the manager's managed set.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, manager *models.User) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Employees: []primitive.ObjectID{},
		TeamLogo:  "https://example.com/logo.png",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if manager != nil {
		team.ManagerID = &manager.ID
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	if manager != nil {
		_, err := f.db.Collection("users").UpdateByID(ctx, manager.ID,
			map[string]any{"$addToSet": map[string]any{"teams": team.ID}})
		if err != nil {
			f.t.Fatalf("failed to link team manager: %v", err)
		}
		manager.Teams = append(manager.Teams, team.ID)
	}
	return team
}

// AddToTeam links user into team on both sides, inheriting the team manager.
func (f *Fixtures) AddToTeam(ctx context.Context, user *models.User, team *models.Team) {
	f.t.Helper()

	_, err := f.db.Collection("teams").UpdateByID(ctx, team.ID,
		map[string]any{"$addToSet": map[string]any{"employees": user.ID}})
	if err != nil {
		f.t.Fatalf("failed to add employee: %v", err)
	}
	f.update("users", user.ID, map[string]any{"team": team.ID, "managerId": team.ManagerID})

	team.Employees = append(team.Employees, user.ID)
	tid := team.ID
	user.Team = &tid
	user.ManagerID = team.ManagerID
}

// CreateRegion inserts a region and assigns it to the given users.
func (f *Fixtures) CreateRegion(ctx context.Context, name string, users ...*models.User) models.Region {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Region{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Teams:     []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("regions").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test region: %v", err)
	}
	for _, u := range users {
		f.update("users", u.ID, map[string]any{"region": r.ID})
		rid := r.ID
		u.Region = &rid
	}
	return r
}

// ReloadUser reads the current state of a user.
func (f *Fixtures) ReloadUser(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()
	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, map[string]any{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("reload user %s: %v", id.Hex(), err)
	}
	return u
}

// ReloadTeam reads the current state of a team.
func (f *Fixtures) ReloadTeam(ctx context.Context, id primitive.ObjectID) models.Team {
	f.t.Helper()
	var team models.Team
	if err := f.db.Collection("teams").FindOne(ctx, map[string]any{"_id": id}).Decode(&team); err != nil {
		f.t.Fatalf("reload team %s: %v", id.Hex(), err)
	}
	return team
}

func (f *Fixtures) update(coll string, id primitive.ObjectID, set map[string]any) {
	f.t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	if _, err := f.db.Collection(coll).UpdateByID(ctx, id, map[string]any{"$set": set}); err != nil {
		f.t.Fatalf("update %s %s: %v", coll, id.Hex(), err)
	}
}
