// internal/app/features/account/register.go
package account

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/authutil"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/normalize"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"github.com/dalemusser/resolvehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Organization string `json:"organization"`
}

// HandleRegister handles POST /register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := jsonutil.Decode(w, r, &req, 0); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	username := normalize.Name(req.Username)
	email := normalize.Email(req.Email)
	if username == "" || email == "" || req.Password == "" {
		jsonutil.Error(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if !validate.SimpleEmailValid(email) {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if err := authutil.ValidatePassword(req.Password); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, capitalize(err.Error()))
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		h.serverError(w, r, "hash password failed", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "register user")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		Username:     username,
		Email:        email,
		Organization: req.Organization,
		Role:         models.RoleUser,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		jsonutil.Error(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		h.serverError(w, r, "create user failed", err)
		return
	}

	h.AuditLog.Registered(ctx, r, u.ID, u.Email)
	h.Log.Info("user registered", zap.String("user_id", u.ID.Hex()))

	jsonutil.Write(w, http.StatusCreated, map[string]string{
		"message": "User registered",
		"user_id": u.ID.Hex(),
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
