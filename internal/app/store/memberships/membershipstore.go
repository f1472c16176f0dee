// internal/app/store/memberships/membershipstore.go
package membershipstore

// Membership terms:
//   - team: the single team a user works in as an employee
//   - teams: the set of teams a user manages
//   - parentTeam: the team a Country Manager invited the user to supervise

import (
	"context"
	"errors"
	"sync"

	teamstore "github.com/dalemusser/orderly/internal/app/store/teams"
	transferstore "github.com/dalemusser/orderly/internal/app/store/transfers"
	userstore "github.com/dalemusser/orderly/internal/app/store/users"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/metrics"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Client-facing messages.
const (
	MsgUserNotFound     = "User not found"
	MsgTeamNotFound     = "Team not found"
	MsgUserExists       = "User already exists"
	MsgTeamExists       = "Team name already exists"
	MsgTeamNameRequired = "Team name is required"
	MsgAccountMissing   = "Your account no longer exists"
	MsgAccountInactive  = "Your account is inactive"
	MsgNoOwnTeam        = "You do not manage a team"
	MsgAreaRequired     = "Area is required"
)

// Notifier receives onboarding side effects. Implementations must not block.
type Notifier interface {
	DispatchWelcome(u models.User)
	DispatchInvitation(invitee, inviter models.User, team models.Team)
}

// Config holds defaults applied to new records.
type Config struct {
	DefaultProfilePicture string
	DefaultTeamLogo       string
	// BcryptCost is the password hashing cost. Zero means bcrypt.DefaultCost.
	BcryptCost int
}

// Store coordinates the users, teams and transferhistories collections.
// Every use case that writes more than one document runs through txn.Run,
// and each of its sub-writes is idempotent so a retried call converges.
type Store struct {
	db        *mongo.Database
	users     *userstore.Store
	teams     *teamstore.Store
	transfers *transferstore.Store
	notify    Notifier
	cfg       Config
	log       *zap.Logger

	reconcileMu sync.Mutex
}

func New(db *mongo.Database, notify Notifier, cfg Config, logger *zap.Logger) *Store {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Store{
		db:        db,
		users:     userstore.New(db),
		teams:     teamstore.New(db),
		transfers: transferstore.New(db),
		notify:    notify,
		cfg:       cfg,
		log:       logger,
	}
}

// loadActor returns the acting user. A token whose user is gone or inactive
// no longer authorizes anything.
func (s *Store) loadActor(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apierr.Unauthorized(MsgAccountMissing)
		}
		return models.User{}, apierr.Internal(err)
	}
	if !u.IsActive() {
		return models.User{}, apierr.Unauthorized(MsgAccountInactive)
	}
	return *u, nil
}

func (s *Store) loadUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apierr.NotFound(MsgUserNotFound)
		}
		return models.User{}, apierr.Internal(err)
	}
	return *u, nil
}

func (s *Store) loadTeam(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	t, err := s.teams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Team{}, apierr.NotFound(MsgTeamNotFound)
		}
		return models.Team{}, apierr.Internal(err)
	}
	return t, nil
}

// classify maps store sentinels onto the error taxonomy; anything
// unrecognized becomes an internal error.
func classify(err error) error {
	var ae *apierr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, userstore.ErrDuplicateEmail):
		return apierr.Conflict(MsgUserExists)
	case errors.Is(err, teamstore.ErrDuplicateTeamName):
		return apierr.Conflict(MsgTeamExists)
	case errors.Is(err, models.ErrInvalidRole):
		return apierr.Validation(err.Error())
	case errors.Is(err, userstore.ErrAreaRequired):
		return apierr.Validation(MsgAreaRequired)
	case errors.Is(err, mongo.ErrNoDocuments):
		return apierr.NotFound(MsgUserNotFound)
	default:
		return apierr.Internal(err)
	}
}

// observe records the outcome of op. Use with a named error return:
// defer func() { s.observe("op", err) }().
func (s *Store) observe(op string, err error) {
	metrics.ObserveMembershipOp(op, err)
	if apierr.KindOf(err) == apierr.KindInternal && err != nil {
		s.log.Error("membership operation failed", zap.String("op", op), zap.Error(err))
	}
}

// Actor returns the user behind a verified token. A missing or inactive
// account is Unauthorized.
func (s *Store) Actor(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return s.loadActor(ctx, id)
}
