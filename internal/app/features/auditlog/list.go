// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/store/audit"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/paging"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"github.com/dalemusser/resolvehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /audit.
//
// Query parameters: category, event_type, user_id, start_date and
// end_date (YYYY-MM-DD, end inclusive), page, per_page. Events are
// returned newest first with actor and target usernames resolved.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, msg := parseFilter(r)
	if msg != "" {
		jsonutil.Error(w, http.StatusBadRequest, msg)
		return
	}
	pg := paging.Parse(r)
	filter.Limit = pg.Limit()
	filter.Offset = pg.Offset()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.serverError(w, r, "failed to query audit events", err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.serverError(w, r, "failed to count audit events", err)
		return
	}

	// Collect unique user IDs for one batched name lookup.
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
		add(e.UserID)
		add(e.ActorID)
	}
	names, err := h.Users.UsernamesByIDs(ctx, ids)
	if err != nil {
		h.serverError(w, r, "failed to resolve audit user names", err)
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e, names))
	}

	jsonutil.Write(w, http.StatusOK, listResponse{
		Items: items,
		Meta:  paging.NewMeta(pg, total),
	})
}

// parseFilter builds the store filter from the query string. A non-empty
// msg is a client error.
func parseFilter(r *http.Request) (f audit.QueryFilter, msg string) {
	f.Category = strings.ToLower(query.Get(r, "category"))
	if f.Category != "" && !validCategory(f.Category) {
		return f, "Invalid category"
	}
	f.EventType = query.Get(r, "event_type")

	if s := query.Get(r, "user_id"); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return f, "Invalid user ID"
		}
		f.UserID = &oid
	}

	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, "Invalid start_date, expected YYYY-MM-DD"
		}
		f.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return f, "Invalid end_date, expected YYYY-MM-DD"
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.EndTime = &end
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, "end_date is before start_date"
	}
	return f, ""
}

func toItem(e audit.Event, names map[primitive.ObjectID]string) listItem {
	it := listItem{
		ID:            e.ID.Hex(),
		Timestamp:     e.Timestamp,
		Category:      e.Category,
		EventType:     e.EventType,
		IP:            e.IP,
		UserAgent:     e.UserAgent,
		Success:       e.Success,
		FailureReason: e.FailureReason,
		Details:       e.Details,
	}
	if e.UserID != nil {
		it.UserID = e.UserID.Hex()
		it.UserName = nameOr(names, *e.UserID)
	}
	if e.ActorID != nil {
		it.ActorID = e.ActorID.Hex()
		it.ActorName = nameOr(names, *e.ActorID)
	}
	return it
}

func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) *string {
	n, ok := names[id]
	if !ok {
		n = models.UnknownUserName
	}
	return &n
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.Log.Error(msg, zap.Error(err), zap.String("path", r.URL.Path))
	jsonutil.Error(w, http.StatusInternalServerError, "internal server error")
}
