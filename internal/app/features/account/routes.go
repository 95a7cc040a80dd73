// internal/app/features/account/routes.go
package account

import (
	"github.com/dalemusser/resolvehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account API (typically under "/api").
//
//	h := account.NewHandler(db, historyColl, issuer, limiter, store, mail, resetExpiry, audit, maxUpload, logger)
//	r.Mount("/api", account.Routes(h, authMgr))
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/send-reset-code", h.HandleSendResetCode)
	r.Post("/verify-reset-code", h.HandleVerifyResetCode)

	r.Group(func(pr chi.Router) {
		pr.Use(am.LoadBearerUser)
		pr.Use(auth.RequireSignedIn)

		pr.Get("/profile", h.ServeProfile)
		pr.Put("/profile", h.HandleUpdateProfile)
		pr.Get("/history", h.ServeHistory)
	})

	return r
}
