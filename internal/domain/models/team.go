// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is a named group of users under one manager.
//
// NOTE:
//   - Name is unique across all teams.
//   - The four rollups are written by an external aggregation process;
//     this service only initializes them to zero.
type Team struct {
	ID        primitive.ObjectID   `bson:"_id" json:"_id"`
	Name      string               `bson:"name" json:"name"`
	ManagerID *primitive.ObjectID  `bson:"managerId" json:"managerId"`
	Employees []primitive.ObjectID `bson:"employees" json:"employees"`
	TeamLogo  string               `bson:"teamLogo" json:"teamLogo"`

	TeamTarget      float64 `bson:"teamTarget" json:"teamTarget"`
	TeamSales       float64 `bson:"teamSales" json:"teamSales"`
	TeamAchievement float64 `bson:"teamAchievement" json:"teamAchievement"`
	TeamForecast    float64 `bson:"teamForecast" json:"teamForecast"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasEmployee reports whether id is in the team's employee set.
func (t Team) HasEmployee(id primitive.ObjectID) bool {
	for _, e := range t.Employees {
		if e == id {
			return true
		}
	}
	return false
}

// ManagedBy reports whether the team's manager is userID.
func (t Team) ManagedBy(userID primitive.ObjectID) bool {
	return t.ManagerID != nil && *t.ManagerID == userID
}

// EmployeeView is the projection of a User embedded in a resolved team.
// Its fields mirror EmployeeProjection in the team store.
type EmployeeView struct {
	ID                 primitive.ObjectID   `bson:"_id" json:"_id"`
	FirstName          string               `bson:"firstName" json:"firstName"`
	LastName           string               `bson:"lastName" json:"lastName"`
	Email              string               `bson:"email" json:"email"`
	Phone              string               `bson:"phone" json:"phone"`
	Role               Role                 `bson:"role" json:"role"`
	ProfilePicture     string               `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Area               string               `bson:"area" json:"area"`
	MonthlyAchievement []float64            `bson:"monthlyAchievement" json:"monthlyAchievement"`
	MonthlySales       []float64            `bson:"monthlySales" json:"monthlySales"`
	Expenses           []primitive.ObjectID `bson:"expenses" json:"expenses"`
	Forecast           []primitive.ObjectID `bson:"forecast" json:"forecast"`
	Tasks              []primitive.ObjectID `bson:"tasks" json:"tasks"`
	ExpoPushTokens     []string             `bson:"expoPushTokens" json:"expoPushTokens"`
	Team               *primitive.ObjectID  `bson:"team" json:"team"`
}

// TeamWithEmployees is a Team whose employee references have been joined
// into EmployeeView documents.
type TeamWithEmployees struct {
	ID        primitive.ObjectID  `bson:"_id" json:"_id"`
	Name      string              `bson:"name" json:"name"`
	ManagerID *primitive.ObjectID `bson:"managerId" json:"managerId"`
	Employees []EmployeeView      `bson:"employees" json:"employees"`
	TeamLogo  string              `bson:"teamLogo" json:"teamLogo"`

	TeamTarget      float64 `bson:"teamTarget" json:"teamTarget"`
	TeamSales       float64 `bson:"teamSales" json:"teamSales"`
	TeamAchievement float64 `bson:"teamAchievement" json:"teamAchievement"`
	TeamForecast    float64 `bson:"teamForecast" json:"teamForecast"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
