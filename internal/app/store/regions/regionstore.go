package regionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/orderly/internal/app/system/normalize"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store reads regions. Regions and their rollups are maintained by other
// processes; Create exists for seeding.
type Store struct {
	c *mongo.Collection
}

var errNameNeeded = errors.New("region name is required")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("regions")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Region, error) {
	var r models.Region
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return models.Region{}, err
	}
	return r, nil
}

func (s *Store) Create(ctx context.Context, r models.Region) (models.Region, error) {
	r.Name = normalize.Name(r.Name)
	if r.Name == "" {
		return models.Region{}, errNameNeeded
	}
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	if r.Teams == nil {
		r.Teams = []primitive.ObjectID{}
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Region{}, err
	}
	return r, nil
}
