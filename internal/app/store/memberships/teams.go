// internal/app/store/memberships/teams.go
package membershipstore

import (
	"context"
	"errors"

	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/authz"
	"github.com/dalemusser/orderly/internal/app/system/htmlsanitize"
	"github.com/dalemusser/orderly/internal/app/system/normalize"
	"github.com/dalemusser/orderly/internal/app/system/txn"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CreateTeam creates a team managed by the actor and adds it to the actor's
// managed set.
func (s *Store) CreateTeam(ctx context.Context, actorID primitive.ObjectID, name, logo string) (team models.Team, err error) {
	defer func() { s.observe("create_team", err) }()

	name = normalize.Name(htmlsanitize.PlainText(name))
	if name == "" {
		return models.Team{}, apierr.Validation(MsgTeamNameRequired)
	}

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return models.Team{}, err
	}
	if !authz.CanCreateTeam(actor.Role) {
		return models.Team{}, apierr.Unauthorized("Your role cannot create teams")
	}

	if _, err := s.teams.GetByName(ctx, name); err == nil {
		return models.Team{}, apierr.Conflict(MsgTeamExists)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Team{}, apierr.Internal(err)
	}

	logo = normalize.URL(logo)
	if logo == "" {
		logo = s.cfg.DefaultTeamLogo
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		created, err := s.teams.Create(ctx, models.Team{
			Name:      name,
			ManagerID: &actor.ID,
			TeamLogo:  logo,
		})
		if err != nil {
			return err
		}
		if _, err := s.users.AddManagedTeam(ctx, actor.ID, created.ID); err != nil {
			return err
		}
		team = created
		return nil
	})
	if err != nil {
		return models.Team{}, classify(err)
	}

	s.log.Info("team created",
		zap.String("team_id", team.ID.Hex()),
		zap.String("name", team.Name),
		zap.String("manager_id", actor.ID.Hex()))
	return team, nil
}

// NewEmployee is the input for AddEmployee. Password is plaintext.
type NewEmployee struct {
	FirstName      string
	LastName       string
	Email          string
	Password       string
	Phone          string
	Role           string
	ProfilePicture string
	Area           string
}

// AddEmployee creates a user on the team, inheriting the team's manager, and
// sends the welcome email in the background.
func (s *Store) AddEmployee(ctx context.Context, actorID, teamID primitive.ObjectID, in NewEmployee) (user models.User, err error) {
	defer func() { s.observe("add_employee", err) }()

	if in.Password == "" {
		return models.User{}, apierr.Validation("Password is required")
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return models.User{}, apierr.Validation(err.Error())
	}

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return models.User{}, err
	}
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return models.User{}, err
	}
	if !authz.CanManageTeam(actor, team) {
		return models.User{}, apierr.Unauthorized("You can only add employees to teams you manage")
	}
	if !authz.CanAssignRole(actor.Role, role) {
		return models.User{}, apierr.Unauthorized("You cannot create an account with a role above your own")
	}

	exists, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}
	if exists {
		return models.User{}, apierr.Conflict(MsgUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}

	picture := normalize.URL(in.ProfilePicture)
	if picture == "" {
		picture = s.cfg.DefaultProfilePicture
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		created, err := s.users.Create(ctx, models.User{
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			Email:          in.Email,
			PasswordHash:   string(hash),
			Phone:          in.Phone,
			Role:           role,
			ProfilePicture: picture,
			Area:           in.Area,
			Team:           &team.ID,
			ManagerID:      team.ManagerID,
		})
		if err != nil {
			return err
		}
		if err := s.teams.AddEmployee(ctx, team.ID, created.ID); err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return models.User{}, classify(err)
	}

	s.log.Info("employee added",
		zap.String("team_id", team.ID.Hex()),
		zap.String("user_id", user.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()))

	s.notify.DispatchWelcome(user)
	return user, nil
}

// InviteSupervisor attaches an existing user to the Country Manager's own
// team as a supervisor. Repeating the call leaves the same state.
func (s *Store) InviteSupervisor(ctx context.Context, actorID primitive.ObjectID, targetEmail string) (target models.User, err error) {
	defer func() { s.observe("invite_supervisor", err) }()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return models.User{}, err
	}
	if !authz.CanInviteSupervisor(actor.Role) {
		return models.User{}, apierr.Unauthorized("Only a Country Manager can invite supervisors")
	}

	owned, err := s.teams.GetByManager(ctx, actor.ID)
	if err != nil {
		return models.User{}, apierr.Internal(err)
	}
	if len(owned) == 0 {
		return models.User{}, apierr.NotFound(MsgNoOwnTeam)
	}
	team := owned[0]

	found, err := s.users.GetByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apierr.NotFound(MsgUserNotFound)
		}
		return models.User{}, apierr.Internal(err)
	}
	target = *found
	alreadyMember := team.HasEmployee(target.ID)

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.users.SetParentTeam(ctx, target.ID, team.ID, &actor.ID); err != nil {
			return err
		}
		return s.teams.AddEmployee(ctx, team.ID, target.ID)
	})
	if err != nil {
		return models.User{}, classify(err)
	}

	target.ParentTeam = &team.ID
	target.ManagerID = &actor.ID

	s.log.Info("supervisor invited",
		zap.String("team_id", team.ID.Hex()),
		zap.String("user_id", target.ID.Hex()),
		zap.Bool("already_member", alreadyMember))

	if !alreadyMember {
		s.notify.DispatchInvitation(target, actor, team)
	}
	return target, nil
}

// RemoveMember detaches a member from a team on both sides. The member's
// other records are kept.
func (s *Store) RemoveMember(ctx context.Context, actorID, memberID, teamID primitive.ObjectID) (member models.User, err error) {
	defer func() { s.observe("remove_member", err) }()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return models.User{}, err
	}
	member, err = s.loadUser(ctx, memberID)
	if err != nil {
		return models.User{}, err
	}
	team, err := s.loadTeam(ctx, teamID)
	if err != nil {
		return models.User{}, err
	}
	if !authz.CanManageTeam(actor, team) {
		return models.User{}, apierr.Unauthorized("You can only remove members from teams you manage")
	}

	// Only clear references that point at this team so a member of another
	// team keeps that membership, and keep a manager that came from the
	// other membership.
	clearTeam := member.Team == nil || *member.Team == team.ID
	clearParent := member.ParentTeam != nil && *member.ParentTeam == team.ID
	manager := member.ManagerID
	if manager != nil && team.ManagerID != nil && *manager == *team.ManagerID {
		manager = nil
	}
	if manager == nil && clearParent && !clearTeam && member.Team != nil {
		if own, err := s.teams.GetByID(ctx, *member.Team); err == nil {
			manager = own.ManagerID
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apierr.Internal(err)
		}
	}

	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if clearParent {
			if err := s.users.ClearParentTeam(ctx, member.ID, manager); err != nil {
				return err
			}
		}
		if clearTeam {
			if err := s.users.SetTeamAndManager(ctx, member.ID, nil, manager); err != nil {
				return err
			}
		}
		return s.teams.RemoveEmployee(ctx, team.ID, member.ID)
	})
	if err != nil {
		return models.User{}, classify(err)
	}

	if clearTeam {
		member.Team = nil
	}
	if clearParent {
		member.ParentTeam = nil
	}
	if clearTeam || clearParent {
		member.ManagerID = manager
	}

	s.log.Info("member removed",
		zap.String("team_id", team.ID.Hex()),
		zap.String("user_id", member.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	return member, nil
}

// TransferMember moves a member to another team and records the move.
func (s *Store) TransferMember(ctx context.Context, actorID, memberID, toTeamID primitive.ObjectID) (rec models.TransferHistory, err error) {
	defer func() { s.observe("transfer_member", err) }()

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return models.TransferHistory{}, err
	}
	member, err := s.loadUser(ctx, memberID)
	if err != nil {
		return models.TransferHistory{}, err
	}
	to, err := s.loadTeam(ctx, toTeamID)
	if err != nil {
		return models.TransferHistory{}, err
	}
	if member.Team != nil && *member.Team == to.ID {
		return models.TransferHistory{}, apierr.Validation("User is already a member of this team")
	}
	if !authz.CanManageTeam(actor, to) {
		return models.TransferHistory{}, apierr.Unauthorized("You can only transfer members into teams you manage")
	}

	// The user side is written first: a reconcile pass that lands between the
	// sub-writes then repairs toward the destination team.
	from := member.Team
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.users.SetTeamAndManager(ctx, member.ID, &to.ID, to.ManagerID); err != nil {
			return err
		}
		if err := s.teams.AddEmployee(ctx, to.ID, member.ID); err != nil {
			return err
		}
		if from != nil {
			if err := s.teams.RemoveEmployee(ctx, *from, member.ID); err != nil {
				return err
			}
		}
		appended, err := s.transfers.Append(ctx, models.TransferHistory{
			UserID:        member.ID,
			FromTeam:      from,
			ToTeam:        to.ID,
			TransferredBy: actor.ID,
		})
		if err != nil {
			return err
		}
		rec = appended
		return nil
	})
	if err != nil {
		return models.TransferHistory{}, classify(err)
	}

	s.log.Info("member transferred",
		zap.String("user_id", member.ID.Hex()),
		zap.String("to_team", to.ID.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	return rec, nil
}

// SetStatus activates or deactivates a member account.
func (s *Store) SetStatus(ctx context.Context, actorID, memberID primitive.ObjectID, status string) (member models.User, err error) {
	defer func() { s.observe("set_status", err) }()

	st, ok := models.ParseStatus(status)
	if !ok {
		return models.User{}, apierr.Validation(`status must be "Active" or "Inactive"`)
	}

	actor, err := s.loadActor(ctx, actorID)
	if err != nil {
		return models.User{}, err
	}
	if actor.ID == memberID {
		return models.User{}, apierr.Validation("You cannot change your own status")
	}
	member, err = s.loadUser(ctx, memberID)
	if err != nil {
		return models.User{}, err
	}
	if !authz.CanManageMember(actor, member) {
		return models.User{}, apierr.Unauthorized("You can only change the status of your own team members")
	}

	if err := s.users.SetStatus(ctx, member.ID, st); err != nil {
		return models.User{}, classify(err)
	}
	member.Status = st

	s.log.Info("member status changed",
		zap.String("user_id", member.ID.Hex()),
		zap.String("status", string(st)),
		zap.String("actor_id", actor.ID.Hex()))
	return member, nil
}
