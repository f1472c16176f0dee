// internal/app/system/authz/authz.go
package authz

import (
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamScope says which teams a user's team view resolves against.
type TeamScope int

const (
	// ScopeOwnTeam resolves the single team the user works in.
	ScopeOwnTeam TeamScope = iota
	// ScopeManagedTeams resolves every team the user manages.
	ScopeManagedTeams
)

func (s TeamScope) String() string {
	switch s {
	case ScopeOwnTeam:
		return "own_team"
	case ScopeManagedTeams:
		return "managed_teams"
	default:
		return "unknown"
	}
}

// IsFrontLine reports whether role is a field role that does not manage people.
func IsFrontLine(role models.Role) bool {
	switch role {
	case models.RoleMedicalRep, models.RoleSeniorMedicalRep:
		return true
	default:
		return false
	}
}

// TeamScopeFor maps a role onto the team view it is entitled to.
func TeamScopeFor(role models.Role) TeamScope {
	if IsFrontLine(role) {
		return ScopeOwnTeam
	}
	return ScopeManagedTeams
}

// IsOrgWide reports whether role may act on any team.
func IsOrgWide(role models.Role) bool {
	switch role {
	case models.RoleCountryManager, models.RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether role is the administrative role.
func IsAdmin(role models.Role) bool {
	return role == models.RoleAdmin
}

// CanCreateTeam reports whether role may create a team it then manages.
func CanCreateTeam(role models.Role) bool {
	switch role {
	case models.RoleCountryManager, models.RoleSalesSupervisor, models.RoleKAM, models.RoleAdmin:
		return true
	default:
		return false
	}
}

// rank orders roles by authority. Supervisors and KAMs share a rank, as do
// the two field roles.
func rank(role models.Role) int {
	switch role {
	case models.RoleAdmin:
		return 4
	case models.RoleCountryManager:
		return 3
	case models.RoleSalesSupervisor, models.RoleKAM:
		return 2
	case models.RoleMedicalRep, models.RoleSeniorMedicalRep:
		return 1
	default:
		return 0
	}
}

// CanSelfRegister reports whether an account with role may be created by
// anonymous registration. The org-wide roles are only granted by a user who
// already outranks or matches them.
func CanSelfRegister(role models.Role) bool {
	return role.Valid() && !IsOrgWide(role)
}

// CanAssignRole reports whether an actor holding actorRole may create an
// account holding role: only roles at or below the actor's own rank.
func CanAssignRole(actorRole, role models.Role) bool {
	r := rank(role)
	return r > 0 && r <= rank(actorRole)
}

// CanInviteSupervisor is true only for Country Manager.
func CanInviteSupervisor(role models.Role) bool {
	return role == models.RoleCountryManager
}

// CanManageTeam reports whether actor may change the membership of team.
func CanManageTeam(actor models.User, team models.Team) bool {
	return IsOrgWide(actor.Role) || team.ManagedBy(actor.ID)
}

// CanManageMember reports whether actor may change member's account state.
func CanManageMember(actor, member models.User) bool {
	if IsOrgWide(actor.Role) {
		return true
	}
	return member.ManagerID != nil && *member.ManagerID == actor.ID
}

// CanActAs reports whether actor may perform an operation addressed to the
// user targetID in the request path.
func CanActAs(actor models.User, targetID primitive.ObjectID) bool {
	return actor.ID == targetID || IsAdmin(actor.Role)
}

// CanViewTeamsOf reports whether actor may read the team view of targetID.
func CanViewTeamsOf(actor models.User, targetID primitive.ObjectID) bool {
	return actor.ID == targetID || IsOrgWide(actor.Role)
}
