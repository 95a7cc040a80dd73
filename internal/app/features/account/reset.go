// internal/app/features/account/reset.go
package account

import (
	"errors"
	"net/http"

	"github.com/dalemusser/resolvehub/internal/app/store/resetcodes"
	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/authutil"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/normalize"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.uber.org/zap"
)

// resetSentMessage is returned whether or not the address has an account.
const resetSentMessage = "If that email is registered, a reset code has been sent"

type sendResetRequest struct {
	Email string `json:"email"`
}

type verifyResetRequest struct {
	Email           string `json:"email"`
	Code            string `json:"code"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// HandleSendResetCode handles POST /send-reset-code.
func (h *Handler) HandleSendResetCode(w http.ResponseWriter, r *http.Request) {
	var req sendResetRequest
	if err := jsonutil.Decode(w, r, &req, 0); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" {
		jsonutil.Error(w, http.StatusBadRequest, "Email is required")
		return
	}
	if !validate.SimpleEmailValid(email) {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "send reset code")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.AuditLog.PasswordResetRequested(ctx, r, nil, email)
		jsonutil.Message(w, http.StatusOK, resetSentMessage)
		return
	}
	if err != nil {
		h.serverError(w, r, "load user failed", err)
		return
	}

	code, err := h.Resets.Create(ctx, u.ID, u.Email)
	if errors.Is(err, resetcodes.ErrTooManySends) {
		jsonutil.Error(w, http.StatusTooManyRequests, "Too many reset requests, try again later")
		return
	}
	if err != nil {
		h.serverError(w, r, "create reset code failed", err)
		return
	}

	if err := h.Mailer.SendResetCode(ctx, u.Email, code, h.Resets.Expiry()); err != nil {
		h.serverError(w, r, "send reset email failed", err)
		return
	}

	h.AuditLog.PasswordResetRequested(ctx, r, &u.ID, u.Email)
	h.Log.Info("password reset code sent", zap.String("user_id", u.ID.Hex()))
	jsonutil.Message(w, http.StatusOK, resetSentMessage)
}

// HandleVerifyResetCode handles POST /verify-reset-code. A valid code sets
// the new password and is consumed.
func (h *Handler) HandleVerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyResetRequest
	if err := jsonutil.Decode(w, r, &req, 0); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Code == "" {
		jsonutil.Error(w, http.StatusBadRequest, "Email and verification code are required")
		return
	}
	if req.NewPassword == "" || req.ConfirmPassword == "" {
		jsonutil.Error(w, http.StatusBadRequest, "Password fields cannot be empty")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		jsonutil.Error(w, http.StatusBadRequest, "Passwords do not match")
		return
	}
	if err := authutil.ValidatePassword(req.NewPassword); err != nil {
		jsonutil.Error(w, http.StatusBadRequest, capitalize(err.Error()))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "verify reset code")
	defer cancel()

	rec, err := h.Resets.VerifyCode(ctx, email, req.Code)
	switch {
	case errors.Is(err, resetcodes.ErrNotFound), errors.Is(err, resetcodes.ErrInvalidCode):
		h.AuditLog.PasswordResetFailed(ctx, r, email, err.Error())
		jsonutil.Error(w, http.StatusBadRequest, "Invalid or expired code")
		return
	case errors.Is(err, resetcodes.ErrTooManyAttempts):
		h.AuditLog.PasswordResetFailed(ctx, r, email, err.Error())
		jsonutil.Error(w, http.StatusTooManyRequests, "Too many attempts, request a new code")
		return
	case err != nil:
		h.serverError(w, r, "verify reset code failed", err)
		return
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		h.serverError(w, r, "hash password failed", err)
		return
	}
	err = h.Users.UpdateProfile(ctx, rec.UserID, userstore.ProfileUpdate{PasswordHash: &hash})
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid or expired code")
		return
	}
	if err != nil {
		h.serverError(w, r, "reset password failed", err)
		return
	}

	h.AuditLog.PasswordResetCompleted(ctx, r, rec.UserID, rec.Email)
	h.Log.Info("password reset", zap.String("user_id", rec.UserID.Hex()))
	jsonutil.Message(w, http.StatusOK, "Password reset successfully")
}
