// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member of the sales organization.
//
// NOTE:
//   - Team is the single team the user works in as an employee. Teams is the
//     set of teams the user manages. A manager's own Team may be empty.
//   - ParentTeam is set when a Country Manager invites the user as a
//     supervisor of their team.
//   - PasswordHash never leaves the server: it is excluded from JSON, so any
//     encoded User is already the sanitized representation.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	FirstName      string               `bson:"firstName" json:"firstName"`
	LastName       string               `bson:"lastName" json:"lastName"`
	Email          string               `bson:"email" json:"email"`
	PasswordHash   string               `bson:"password" json:"-"`
	Phone          string               `bson:"phone" json:"phone"`
	Role           Role                 `bson:"role" json:"role"`
	ManagerID      *primitive.ObjectID  `bson:"managerId" json:"managerId"`
	ParentTeam     *primitive.ObjectID  `bson:"parentTeam,omitempty" json:"parentTeam,omitempty"`
	ProfilePicture string               `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Team           *primitive.ObjectID  `bson:"team" json:"team"`
	Teams          []primitive.ObjectID `bson:"teams,omitempty" json:"teams,omitempty"`
	Region         *primitive.ObjectID  `bson:"region,omitempty" json:"region,omitempty"`
	Area           string               `bson:"area" json:"area"`

	// References into record types owned by other services.
	Target      *primitive.ObjectID `bson:"target,omitempty" json:"target,omitempty"`
	Sales       *primitive.ObjectID `bson:"sales,omitempty" json:"sales,omitempty"`
	Achievement *primitive.ObjectID `bson:"achievement,omitempty" json:"achievement,omitempty"`

	MonthlyAchievement []float64            `bson:"monthlyAchievement" json:"monthlyAchievement"`
	MonthlySales       []float64            `bson:"monthlySales" json:"monthlySales"`
	Expenses           []primitive.ObjectID `bson:"expenses" json:"expenses"`
	Forecast           []primitive.ObjectID `bson:"forecast" json:"forecast"`
	Tasks              []primitive.ObjectID `bson:"tasks" json:"tasks"`
	ExpoPushTokens     []string             `bson:"expoPushTokens" json:"expoPushTokens"`

	Status    UserStatus `bson:"status" json:"status"`
	LastLogin time.Time  `bson:"lastLogin" json:"lastLogin"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FullName joins first and last name for messages.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsActive reports whether the account may sign in.
func (u User) IsActive() bool {
	return u.Status == "" || u.Status == StatusActive
}
