// internal/app/features/account/history.go
package account

import (
	"net/http"

	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
)

// ServeHistory handles GET /history: the signed-in user's activity records,
// newest first, as stored.
func (h *Handler) ServeHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "user history")
	defer cancel()

	recs, err := h.History.ListByUser(ctx, id, 0)
	if err != nil {
		h.serverError(w, r, "list user history failed", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, recs)
}
