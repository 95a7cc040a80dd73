// internal/app/features/account/login.go
package account

import (
	"errors"
	"net/http"
	"strconv"

	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/authutil"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/normalize"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"github.com/dalemusser/resolvehub/internal/domain/models"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	User        models.User `json:"user"`
}

// HandleLogin handles POST /login. Unknown emails and wrong passwords get
// the same 401 so the endpoint does not reveal which accounts exist; the
// banned check runs only after the password matches.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := jsonutil.Decode(w, r, &req, 0); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		jsonutil.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if h.Limiter != nil {
		if ok, limitType := h.Limiter.Check(r, email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, email, limitType)
			w.Header().Set("Retry-After", strconv.Itoa(int(h.Limiter.Window().Seconds())))
			jsonutil.Error(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		jsonutil.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.serverError(w, r, "find user for login failed", err)
		return
	}

	if !authutil.CheckPassword(req.Password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, email)
		jsonutil.Error(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if u.Banned {
		h.AuditLog.LoginFailedBanned(ctx, r, u.ID, email)
		jsonutil.Error(w, http.StatusForbidden, "Account banned")
		return
	}

	token, _, err := h.Tokens.Issue(u.ID.Hex(), normalize.Role(u.Role))
	if err != nil {
		h.serverError(w, r, "issue token failed", err)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, email)
	h.Log.Info("user logged in", zap.String("user_id", u.ID.Hex()))

	jsonutil.Write(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.Tokens.TTL().Seconds()),
		User:        *u,
	})
}
