// internal/app/store/memberships/resolve.go
package membershipstore

import (
	"context"

	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/authz"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResolveVisibleTeams returns the teams userID may see with their employees
// joined. Front-line roles see the team they work in; every other role sees
// the teams it manages. The result is never nil.
func (s *Store) ResolveVisibleTeams(ctx context.Context, userID primitive.ObjectID) ([]models.TeamWithEmployees, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var filter bson.M
	switch authz.TeamScopeFor(user.Role) {
	case authz.ScopeOwnTeam:
		if user.Team == nil {
			return []models.TeamWithEmployees{}, nil
		}
		filter = bson.M{"_id": *user.Team}
	case authz.ScopeManagedTeams:
		managed := user.Teams
		if managed == nil {
			managed = []primitive.ObjectID{}
		}
		filter = bson.M{"$or": bson.A{
			bson.M{"_id": bson.M{"$in": managed}},
			bson.M{"managerId": user.ID},
		}}
	}

	teams, err := s.teams.ResolveWithEmployees(ctx, filter)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return teams, nil
}

// GetMember returns one user. The password hash never serializes.
func (s *Store) GetMember(ctx context.Context, memberID primitive.ObjectID) (models.User, error) {
	return s.loadUser(ctx, memberID)
}

// Transfers returns a member's transfer history, newest first.
func (s *Store) Transfers(ctx context.Context, memberID primitive.ObjectID) ([]models.TransferHistory, error) {
	if _, err := s.loadUser(ctx, memberID); err != nil {
		return nil, err
	}
	out, err := s.transfers.ListByUser(ctx, memberID)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}
