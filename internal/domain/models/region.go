// internal/domain/models/region.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Region groups teams under a country-level manager. Regions are maintained
// outside this service; here they are read to populate profiles.
type Region struct {
	ID        primitive.ObjectID   `bson:"_id" json:"_id"`
	Name      string               `bson:"name" json:"name"`
	ManagerID *primitive.ObjectID  `bson:"managerId,omitempty" json:"managerId,omitempty"`
	Teams     []primitive.ObjectID `bson:"teams" json:"teams"`

	CountryTarget      float64 `bson:"countryTarget" json:"countryTarget"`
	CountrySales       float64 `bson:"countrySales" json:"countrySales"`
	CountryAchievement float64 `bson:"countryAchievement" json:"countryAchievement"`
	CountryForecast    float64 `bson:"countryForecast" json:"countryForecast"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
