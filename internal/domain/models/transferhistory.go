// internal/domain/models/transferhistory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransferHistory records one move of a user between teams. Records are
// append-only.
type TransferHistory struct {
	ID            primitive.ObjectID  `bson:"_id" json:"_id"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	FromTeam      *primitive.ObjectID `bson:"fromTeam" json:"fromTeam"`
	ToTeam        primitive.ObjectID  `bson:"toTeam" json:"toTeam"`
	TransferredBy primitive.ObjectID  `bson:"transferredBy" json:"transferredBy"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
