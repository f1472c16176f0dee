// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/orderly/internal/app/store/audit"
	"github.com/dalemusser/orderly/internal/app/system/apierr"
	"github.com/dalemusser/orderly/internal/app/system/auth"
	"github.com/dalemusser/orderly/internal/app/system/authz"
	"github.com/dalemusser/orderly/internal/app/system/httpjson"
	"github.com/dalemusser/orderly/internal/app/system/inputval"
	"github.com/dalemusser/orderly/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	PageSize   = 50
	MaxPage    = math.MaxInt32 / PageSize
	dateLayout = "2006-01-02"

	MsgAdminOnly = "Only an Admin can view the audit log"
)

// listItem is one event with its user ids resolved to names.
type listItem struct {
	audit.Event
	ActorName string `json:"actorName,omitempty"`
	UserName  string `json:"userName,omitempty"`
}

type listResponse struct {
	Items      []listItem `json:"items"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
	Total      int64      `json:"total"`
}

// ServeList handles GET /api/audit.
//
// Query parameters, all optional: category, eventType, userId, teamId,
// startDate and endDate (YYYY-MM-DD, endDate inclusive), page (1-based).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.CurrentIdentity(r)
	if !ok {
		apierr.Write(w, r, h.Log, apierr.Unauthorized(auth.MsgMissingToken))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	caller, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			apierr.Write(w, r, h.Log, apierr.Unauthorized(auth.MsgMissingToken))
			return
		}
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}
	if !caller.IsActive() || !authz.IsAdmin(caller.Role) {
		apierr.Write(w, r, h.Log, apierr.Unauthorized(MsgAdminOnly))
		return
	}

	filter, page, err := parseFilter(r)
	if err != nil {
		apierr.Write(w, r, h.Log, err)
		return
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		apierr.Write(w, r, h.Log, apierr.Internal(err))
		return
	}

	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	httpjson.Write(w, http.StatusOK, listResponse{
		Items:      h.resolveNames(ctx, events),
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	})
}

func parseFilter(r *http.Request) (audit.QueryFilter, int, error) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("eventType")),
		Limit:     PageSize,
	}

	switch filter.Category {
	case "", audit.CategoryAuth, audit.CategoryMembership:
	default:
		return filter, 0, apierr.Validation("Unknown category")
	}

	for _, p := range []struct {
		param, what string
		dst         **primitive.ObjectID
	}{
		{"userId", "user id", &filter.UserID},
		{"teamId", "team id", &filter.TeamID},
	} {
		v := strings.TrimSpace(q.Get(p.param))
		if v == "" {
			continue
		}
		oid, err := inputval.ObjectID(v, p.what)
		if err != nil {
			return filter, 0, err
		}
		*p.dst = &oid
	}

	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, 0, apierr.Validation("startDate must be YYYY-MM-DD")
		}
		filter.StartTime = &t
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, 0, apierr.Validation("endDate must be YYYY-MM-DD")
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	page := 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > MaxPage {
			return filter, 0, apierr.Validation("page must be between 1 and " + strconv.Itoa(MaxPage))
		}
		page = p
	}
	filter.Offset = int64(page-1) * PageSize
	return filter, page, nil
}

// resolveNames attaches actor and user names. A lookup failure leaves the
// names blank rather than failing the listing.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) []listItem {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; !ok {
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}

	names, err := h.Users.NamesByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to resolve user names for audit log", zap.Error(err))
		names = nil
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{Event: e}
		if e.ActorID != nil {
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.UserName = names[*e.UserID]
		}
		items = append(items, item)
	}
	return items
}
