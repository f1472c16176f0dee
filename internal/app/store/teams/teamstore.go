// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/orderly/internal/app/system/normalize"
	"github.com/dalemusser/orderly/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateTeamName = errors.New("a team with this name already exists")
	errNameNeeded        = errors.New("team name is required")
)

// EmployeeProjection is the fixed set of user fields embedded in a resolved
// team. The password hash and account metadata are never included.
var EmployeeProjection = bson.D{
	{Key: "firstName", Value: 1},
	{Key: "lastName", Value: 1},
	{Key: "email", Value: 1},
	{Key: "phone", Value: 1},
	{Key: "role", Value: 1},
	{Key: "profilePicture", Value: 1},
	{Key: "area", Value: 1},
	{Key: "monthlyAchievement", Value: 1},
	{Key: "monthlySales", Value: 1},
	{Key: "expenses", Value: 1},
	{Key: "forecast", Value: 1},
	{Key: "tasks", Value: 1},
	{Key: "expoPushTokens", Value: 1},
	{Key: "team", Value: 1},
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teams")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// GetByName matches the stored name exactly, as the unique index does.
func (s *Store) GetByName(ctx context.Context, name string) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"name": normalize.Name(name)}).Decode(&t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// GetByManager returns the teams whose managerId is managerID, oldest first.
func (s *Store) GetByManager(ctx context.Context, managerID primitive.ObjectID) ([]models.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"managerId": managerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Team
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts t with zeroed rollups and an empty employee set.
func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	t.Name = normalize.Name(t.Name)
	if t.Name == "" {
		return models.Team{}, errNameNeeded
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.TeamLogo = normalize.URL(t.TeamLogo)
	if t.Employees == nil {
		t.Employees = []primitive.ObjectID{}
	}
	t.TeamTarget, t.TeamSales, t.TeamAchievement, t.TeamForecast = 0, 0, 0, 0
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Team{}, ErrDuplicateTeamName
		}
		return models.Team{}, err
	}
	return t, nil
}

// AddEmployee adds userID to the team's employees. Repeating it is a no-op.
// Returns mongo.ErrNoDocuments if the team does not exist.
func (s *Store) AddEmployee(ctx context.Context, teamID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{
		"$addToSet": bson.M{"employees": userID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveEmployee pulls userIDs from the team's employees.
func (s *Store) RemoveEmployee(ctx context.Context, teamID primitive.ObjectID, userIDs ...primitive.ObjectID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": teamID}, bson.M{
		"$pull": bson.M{"employees": bson.M{"$in": userIDs}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	return err
}

// ResolveWithEmployees returns the teams matching filter with their employee
// references joined into EmployeeProjection documents, sorted by name.
// Employee ids without a matching user are dropped from the result.
func (s *Store) ResolveWithEmployees(ctx context.Context, filter bson.M) ([]models.TeamWithEmployees, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users",
			"let":  bson.M{"emps": bson.M{"$ifNull": bson.A{"$employees", bson.A{}}}},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$in": bson.A{"$_id", "$$emps"}}}},
				bson.M{"$sort": bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}}},
				bson.M{"$project": EmployeeProjection},
			},
			"as": "employees",
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.TeamWithEmployees{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Roster is the membership slice of a team used by reconciliation.
type Roster struct {
	ID        primitive.ObjectID   `bson:"_id"`
	ManagerID *primitive.ObjectID  `bson:"managerId"`
	Employees []primitive.ObjectID `bson:"employees"`
}

// ListRosters returns every team's id, manager and employees.
func (s *Store) ListRosters(ctx context.Context) ([]Roster, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "managerId": 1, "employees": 1})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Roster
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
