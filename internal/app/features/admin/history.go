// internal/app/features/admin/history.go
package admin

import (
	"net/http"

	"github.com/dalemusser/resolvehub/internal/app/store/queries/historyusers"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
)

// ServeHistory handles GET /history: every activity record with its
// owner's username, or "Unknown" when the owner is gone.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "admin history")
	defer cancel()

	recs, err := historyusers.ListWithUserNames(ctx, h.History, h.Users)
	if err != nil {
		h.serverError(w, r, "list history failed", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, recs)
}
