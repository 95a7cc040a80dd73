// internal/app/features/frontend/routes.go
package frontend

import "github.com/go-chi/chi/v5"

// Routes serves uploads and the SPA. Mount it at "/" after every other
// router so its catch-all only sees unmatched paths.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/static/uploads/*", h.ServeUpload)
	r.NotFound(h.ServeSPA)
	return r
}
