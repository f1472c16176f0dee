// internal/app/store/transfers/transferstore.go
package transferstore

import (
	"context"
	"time"

	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is append-only: there are no update or delete methods.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("transferhistories")}
}

// Append records one transfer and returns it with its id and timestamps.
func (s *Store) Append(ctx context.Context, h models.TransferHistory) (models.TransferHistory, error) {
	now := time.Now().UTC()
	h.ID = primitive.NewObjectID()
	h.CreatedAt = now
	h.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, h); err != nil {
		return models.TransferHistory{}, err
	}
	return h, nil
}

// ListByUser returns a user's transfers, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.TransferHistory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.TransferHistory{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
