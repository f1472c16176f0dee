package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/orderly/internal/app/system/htmlsanitize"
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

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadStatus      = errors.New(`status must be "Active"|"Inactive"`)
	ErrAreaRequired   = errors.New("area is required")
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// NamesByIDs returns the full name of each existing user in ids.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	opts := options.Find().SetProjection(bson.M{"firstName": 1, "lastName": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	return names, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailExists reports whether any user has email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.emailTaken(ctx, bson.M{"email": normalize.Email(email)})
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	return s.emailTaken(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	})
}

func (s *Store) emailTaken(ctx context.Context, filter bson.M) (bool, error) {
	err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Create inserts a new user after normalizing & validating fields.
// u.PasswordHash must already be hashed. Empty role becomes the default
// role and empty status becomes Active.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FirstName = normalize.Name(htmlsanitize.PlainText(u.FirstName))
	u.LastName = normalize.Name(htmlsanitize.PlainText(u.LastName))
	u.Area = normalize.Name(htmlsanitize.PlainText(u.Area))
	u.Email = normalize.Email(u.Email)
	u.Phone = normalize.Phone(u.Phone)
	u.ProfilePicture = normalize.URL(u.ProfilePicture)

	role, err := models.ParseRole(string(u.Role))
	if err != nil {
		return models.User{}, err
	}
	u.Role = role

	if u.Status == "" {
		u.Status = models.StatusActive
	}
	if _, ok := models.ParseStatus(string(u.Status)); !ok {
		return models.User{}, errBadStatus
	}
	if u.Area == "" {
		return models.User{}, ErrAreaRequired
	}

	// Arrays are stored empty rather than null so clients can append.
	if u.MonthlyAchievement == nil {
		u.MonthlyAchievement = []float64{}
	}
	if u.MonthlySales == nil {
		u.MonthlySales = []float64{}
	}
	if u.Expenses == nil {
		u.Expenses = []primitive.ObjectID{}
	}
	if u.Forecast == nil {
		u.Forecast = []primitive.ObjectID{}
	}
	if u.Tasks == nil {
		u.Tasks = []primitive.ObjectID{}
	}
	if u.ExpoPushTokens == nil {
		u.ExpoPushTokens = []string{}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.LastLogin.IsZero() {
		u.LastLogin = now
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the self-service profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	ProfilePicture *string
}

// Empty reports whether the update would change nothing.
func (p ProfileUpdate) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Phone == nil && p.ProfilePicture == nil
}

// UpdateProfile applies upd to the user and returns the updated document.
// Returns ErrDuplicateEmail if the email belongs to another user and
// mongo.ErrNoDocuments if the user does not exist.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.FirstName != nil {
		set["firstName"] = normalize.Name(htmlsanitize.PlainText(*upd.FirstName))
	}
	if upd.LastName != nil {
		set["lastName"] = normalize.Name(htmlsanitize.PlainText(*upd.LastName))
	}
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.Phone != nil {
		set["phone"] = normalize.Phone(*upd.Phone)
	}
	if upd.ProfilePicture != nil {
		set["profilePicture"] = normalize.URL(*upd.ProfilePicture)
	}

	var u models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

// SetTeamAndManager sets the user's team and managerId. A nil pointer stores null.
func (s *Store) SetTeamAndManager(ctx context.Context, id primitive.ObjectID, team, manager *primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"team":      team,
		"managerId": manager,
		"updatedAt": time.Now().UTC(),
	}})
	return err
}

// SetParentTeam records the inviting team and its manager on the user.
func (s *Store) SetParentTeam(ctx context.Context, id, parentTeam primitive.ObjectID, manager *primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"parentTeam": parentTeam,
		"managerId":  manager,
		"updatedAt":  time.Now().UTC(),
	}})
	return err
}

// AddManagedTeam adds teamID to the user's managed set and reports whether
// it was missing. Repeating it is a no-op.
func (s *Store) AddManagedTeam(ctx context.Context, id, teamID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "teams": bson.M{"$ne": teamID}}, bson.M{
		"$addToSet": bson.M{"teams": teamID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ClearParentTeam removes the inviting team and sets managerId to manager,
// which is nil when the inviter was the only manager.
func (s *Store) ClearParentTeam(ctx context.Context, id primitive.ObjectID, manager *primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$unset": bson.M{"parentTeam": ""},
		"$set":   bson.M{"managerId": manager, "updatedAt": time.Now().UTC()},
	})
	return err
}

// SetStatus flips the soft status. Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st models.UserStatus) error {
	if _, ok := models.ParseStatus(string(st)); !ok {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":    st,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// TouchLastLogin records a successful sign-in time.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLogin": at.UTC()}})
	return err
}

// GetWithRegion loads a user and joins its region document. The region is
// nil when the user has none or it no longer exists.
func (s *Store) GetWithRegion(ctx context.Context, id primitive.ObjectID) (*models.User, *models.Region, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "regions",
			"localField":   "region",
			"foreignField": "_id",
			"as":           "regionDoc",
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		models.User `bson:",inline"`
		RegionDoc   []models.Region `bson:"regionDoc"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, mongo.ErrNoDocuments
	}

	u := rows[0].User
	var region *models.Region
	if len(rows[0].RegionDoc) > 0 {
		region = &rows[0].RegionDoc[0]
	}
	return &u, region, nil
}

// TeamRef is the membership slice of a user used by reconciliation.
type TeamRef struct {
	ID         primitive.ObjectID  `bson:"_id"`
	Team       *primitive.ObjectID `bson:"team"`
	ParentTeam *primitive.ObjectID `bson:"parentTeam"`
}

// ListTeamRefs returns the team references of every user that has one.
func (s *Store) ListTeamRefs(ctx context.Context) ([]TeamRef, error) {
	filter := bson.M{"$or": []bson.M{
		{"team": bson.M{"$type": "objectId"}},
		{"parentTeam": bson.M{"$type": "objectId"}},
	}}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "team": 1, "parentTeam": 1})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []TeamRef
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearTeamRefs nulls team and managerId on users whose team is one of teamIDs.
func (s *Store) ClearTeamRefs(ctx context.Context, teamIDs []primitive.ObjectID) (int64, error) {
	if len(teamIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx, bson.M{"team": bson.M{"$in": teamIDs}}, bson.M{"$set": bson.M{
		"team":      nil,
		"managerId": nil,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
