// internal/app/features/admin/users.go
package admin

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeListUsers handles GET /users.
func (h *Handler) ServeListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin list users")
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		h.serverError(w, r, "list users failed", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, users)
}

// ServeGetUser handles GET /users/{id}.
func (h *Handler) ServeGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin get user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "get user failed", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, u)
}

// HandleUpdateUser handles PUT /users/{id}. The body may carry any JSON
// object; only the editable fields are written and everything else is
// ignored.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var raw map[string]any
	if err := jsonutil.Decode(w, r, &raw, 0); err != nil && !errors.Is(err, jsonutil.ErrEmptyBody) {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	set, err := userstore.EditableUpdate(raw)
	switch {
	case errors.Is(err, userstore.ErrNoValidFields):
		jsonutil.Error(w, http.StatusBadRequest, "No valid fields to update")
		return
	case errors.Is(err, userstore.ErrInvalidField):
		jsonutil.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.serverError(w, r, "build user update failed", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin update user")
	defer cancel()

	err = h.Users.UpdateFields(ctx, id, set)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		jsonutil.Error(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, userstore.ErrDuplicateEmail):
		jsonutil.Error(w, http.StatusConflict, "Email already in use")
		return
	case err != nil:
		h.serverError(w, r, "update user failed", err)
		return
	}

	fields := make([]string, 0, len(set))
	for k := range set {
		fields = append(fields, k)
	}
	h.AuditLog.UserUpdated(ctx, r, id, fields)
	if banned, ok := set["banned"].(bool); ok {
		if banned {
			h.AuditLog.UserBanned(ctx, r, id)
		} else {
			h.AuditLog.UserUnbanned(ctx, r, id)
		}
	}

	h.Log.Info("user updated", zap.String("user_id", id.Hex()), zap.Strings("fields", fields))
	jsonutil.Message(w, http.StatusOK, "User updated")
}

// HandleDeleteUser handles DELETE /users/{id}. Deleting an id that does not
// exist still reports success.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin delete user")
	defer cancel()

	n, err := h.Users.Delete(ctx, id)
	if err != nil {
		h.serverError(w, r, "delete user failed", err)
		return
	}

	h.AuditLog.UserDeleted(ctx, r, id, n > 0)
	jsonutil.Message(w, http.StatusOK, "User deleted")
}
