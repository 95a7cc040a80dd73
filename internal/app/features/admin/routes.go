// internal/app/features/admin/routes.go
package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin API under the path where this router is mounted
// (typically "/admin_api" from bootstrap). guards run before every route;
// bootstrap passes the bearer-token admin check when admin auth is enabled.
func Routes(h *Handler, guards ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		for _, g := range guards {
			pr.Use(g)
		}

		pr.Get("/users", h.ServeListUsers)
		pr.Get("/users/{id}", h.ServeGetUser)
		pr.Put("/users/{id}", h.HandleUpdateUser)
		pr.Delete("/users/{id}", h.HandleDeleteUser)

		pr.Get("/history", h.ServeHistory)
	})

	return r
}
