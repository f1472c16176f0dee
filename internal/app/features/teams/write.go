// internal/app/features/teams/write.go
package teams

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	membershipstore "github.com/dalemusser/orderly/internal/app/store/memberships"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/authz"
	"github.com/dalemusser/orderly/internal/app/system/httpjson"
	"github.com/dalemusser/orderly/internal/app/system/inputval"
	"github.com/dalemusser/orderly/internal/app/system/timeouts"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// decode reads and validates a JSON body, writing 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpjson.Decode(w, r, v); err != nil {
		h.fail(w, r, apierr.Validation(err.Error()))
		return false
	}
	if err := inputval.Struct(v); err != nil {
		h.fail(w, r, err)
		return false
	}
	return true
}

/*─────────────────────────────────────────────────────────────────────────────*
| create                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type createRequest struct {
	Name string `json:"name" validate:"required,max=100" msg:"Team name is required"`
	Logo string `json:"logo" validate:"max=2048"`
}

type createResponse struct {
	Message string      `json:"message"`
	TeamID  string      `json:"teamId"`
	Team    models.Team `json:"team"`
}

// HandleCreate handles POST /api/team/create/{userId}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userId", "user id")
	if !ok {
		return
	}
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.actingAs(ctx, callerID, userID, authz.CanActAs); err != nil {
		h.fail(w, r, err)
		return
	}

	team, err := h.Members.CreateTeam(ctx, userID, req.Name, req.Logo)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Audit.TeamCreated(ctx, r, callerID, userID, team.ID, team.Name)
	httpjson.Write(w, http.StatusOK, createResponse{
		Message: fmt.Sprintf("Team %s created successfully", team.Name),
		TeamID:  team.ID.Hex(),
		Team:    team,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| addEmployee                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

type addEmployeeRequest struct {
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6,max=72"`
	Phone          string `json:"phone" validate:"max=32"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture" validate:"max=2048"`
	Area           string `json:"area" validate:"required,max=100"`
}

type userResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

// HandleAddEmployee handles POST /api/team/addEmployee/{teamId}.
func (h *Handler) HandleAddEmployee(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}
	teamID, ok := h.pathID(w, r, "teamId", "team id")
	if !ok {
		return
	}
	var req addEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	user, err := h.Members.AddEmployee(ctx, callerID, teamID, membershipstore.NewEmployee{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		Role:           req.Role,
		ProfilePicture: req.ProfilePicture,
		Area:           req.Area,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Audit.EmployeeAdded(ctx, r, callerID, user.ID, teamID, string(user.Role))
	httpjson.Write(w, http.StatusOK, userResponse{Message: "User created successfully", User: user})
}

/*─────────────────────────────────────────────────────────────────────────────*
| inviteSupervisor                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type inviteRequest struct {
	Email string `json:"email" validate:"required,email" msg:"A valid email is required"`
}

// HandleInviteSupervisor handles POST /api/team/inviteSupervisor/{userId}.
func (h *Handler) HandleInviteSupervisor(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}
	userID, ok := h.pathID(w, r, "userId", "user id")
	if !ok {
		return
	}
	var req inviteRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.actingAs(ctx, callerID, userID, authz.CanActAs); err != nil {
		h.fail(w, r, err)
		return
	}

	target, err := h.Members.InviteSupervisor(ctx, userID, req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Audit.SupervisorInvited(ctx, r, callerID, userID, target.ID, target.ParentTeam)
	httpjson.Write(w, http.StatusOK, userResponse{
		Message: fmt.Sprintf("User %s added to your team as a supervisor", target.FullName()),
		User:    target,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| removeMember / transfer / status                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type removeRequest struct {
	TeamID string `json:"teamId" validate:"required,objectid" msg:"A valid teamId is required"`
}

// HandleRemoveMember handles PUT /api/team/removeMember/{memberId}.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}
	memberID, ok := h.pathID(w, r, "memberId", "member id")
	if !ok {
		return
	}
	var req removeRequest
	if !h.decode(w, r, &req) {
		return
	}
	teamID, _ := primitive.ObjectIDFromHex(req.TeamID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	member, err := h.Members.RemoveMember(ctx, callerID, memberID, teamID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Audit.MemberRemoved(ctx, r, callerID, member.ID, teamID)
	httpjson.Write(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("User %s removed from team; sales, tasks and expenses are retained", member.FullName()),
	})
}

type transferRequest struct {
	ToTeam string `json:"toTeam" validate:"required,objectid" msg:"A valid toTeam is required"`
}

type transferResponse struct {
	Message  string                 `json:"message"`
	Transfer models.TransferHistory `json:"transfer"`
}

// HandleTransfer handles PUT /api/team/transfer/{memberId}.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}
	memberID, ok := h.pathID(w, r, "memberId", "member id")
	if !ok {
		return
	}
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	toTeam, _ := primitive.ObjectIDFromHex(req.ToTeam)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rec, err := h.Members.TransferMember(ctx, callerID, memberID, toTeam)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Audit.MemberTransferred(ctx, r, callerID, rec.UserID, rec.FromTeam, rec.ToTeam)
	httpjson.Write(w, http.StatusOK, transferResponse{Message: "User transferred successfully", Transfer: rec})
}

type statusRequest struct {
	Status string `json:"status" validate:"required" msg:"status is required"`
}

// HandleStatus handles PUT /api/team/status/{memberId}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}
	memberID, ok := h.pathID(w, r, "memberId", "member id")
	if !ok {
		return
	}
	var req statusRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Members.SetStatus(ctx, callerID, memberID, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Audit.MemberStatusChanged(ctx, r, callerID, member.ID, string(member.Status))
	httpjson.Write(w, http.StatusOK, userResponse{
		Message: fmt.Sprintf("User %s is now %s", member.FullName(), member.Status),
		User:    member,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| reconcile                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

const MsgReconcileRunning = "Reconciliation is already running"

// HandleReconcile handles POST /api/team/reconcile (Admin only).
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.identity(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	caller, err := h.Members.Actor(ctx, callerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !authz.IsAdmin(caller.Role) {
		h.fail(w, r, apierr.Unauthorized("Only an Admin can run reconciliation"))
		return
	}

	res, err := h.Members.Reconcile(ctx)
	if errors.Is(err, membershipstore.ErrReconcileRunning) {
		h.fail(w, r, apierr.Conflict(MsgReconcileRunning))
		return
	}
	if err != nil {
		h.fail(w, r, apierr.Internal(err))
		return
	}
	h.Audit.Reconciled(ctx, r, callerID, res.RunID, res.Counts())
	httpjson.Write(w, http.StatusOK, res)
}
