// internal/app/features/account/profile.go
package account

import (
	"bufio"
	"errors"
	"mime"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/auth"
	"github.com/dalemusser/resolvehub/internal/app/system/authutil"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/normalize"
	"github.com/dalemusser/resolvehub/internal/app/system/timeouts"
	"github.com/dalemusser/resolvehub/internal/app/system/uploads"
	"github.com/dalemusser/resolvehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// profileView is what the profile page reads.
type profileView struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Organization string `json:"organization"`
	AvatarURL    string `json:"avatarUrl"`
}

func viewOf(u *models.User) profileView {
	return profileView{
		Email:        u.Email,
		Username:     u.Username,
		Organization: u.Organization,
		AvatarURL:    u.AvatarURL,
	}
}

// profileInput is the union of the JSON and multipart forms. Absent fields
// are nil and left unchanged.
type profileInput struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	Organization *string `json:"organization"`
	Password     *string `json:"password"`
}

// currentUserID returns the signed-in user's id. RequireSignedIn guarantees
// a user; a malformed id means the token outlived a data migration.
func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Error(w, http.StatusUnauthorized, "Missing or invalid token")
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		jsonutil.Error(w, http.StatusUnauthorized, "Missing or invalid token")
		return primitive.NilObjectID, false
	}
	return oid, true
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get profile")
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "load profile failed", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, viewOf(u))
}

// HandleUpdateProfile handles PUT /profile. It accepts either a JSON body
// or a multipart form with an optional "avatar" file.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var (
		in        profileInput
		avatarRel string
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	isMultipart := mediaType == "multipart/form-data"

	if isMultipart {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
		if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
			jsonutil.Error(w, http.StatusBadRequest, "Invalid form data or file too large")
			return
		}
		defer r.MultipartForm.RemoveAll()
		in = formInput(r)
	} else if err := jsonutil.Decode(w, r, &in, 0); err != nil && !errors.Is(err, jsonutil.ErrEmptyBody) {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	upd := userstore.ProfileUpdate{
		Organization: in.Organization,
	}
	var changed []string
	if in.Organization != nil {
		changed = append(changed, "organization")
	}
	if in.Username != nil {
		name := normalize.Name(*in.Username)
		if name == "" {
			jsonutil.Error(w, http.StatusBadRequest, "Username cannot be empty")
			return
		}
		upd.Username = &name
		changed = append(changed, "username")
	}
	if in.Email != nil {
		email := normalize.Email(*in.Email)
		if !validate.SimpleEmailValid(email) {
			jsonutil.Error(w, http.StatusBadRequest, "Invalid email address")
			return
		}
		upd.Email = &email
		changed = append(changed, "email")
	}
	passwordChanged := false
	if in.Password != nil && *in.Password != "" {
		if err := authutil.ValidatePassword(*in.Password); err != nil {
			jsonutil.Error(w, http.StatusBadRequest, capitalize(err.Error()))
			return
		}
		hash, err := authutil.HashPassword(*in.Password)
		if err != nil {
			h.serverError(w, r, "hash password failed", err)
			return
		}
		upd.PasswordHash = &hash
		passwordChanged = true
		changed = append(changed, "password")
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update profile")
	defer cancel()

	before, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		jsonutil.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.serverError(w, r, "load profile failed", err)
		return
	}

	if isMultipart {
		rel, status, msg, err := h.saveAvatar(r, id)
		if err != nil {
			h.serverError(w, r, "save avatar failed", err)
			return
		}
		if status != 0 {
			jsonutil.Error(w, status, msg)
			return
		}
		if rel != "" {
			avatarRel = rel
			url := uploads.PublicURL(rel)
			upd.AvatarURL = &url
			changed = append(changed, "avatar")
		}
	}

	if len(changed) == 0 {
		jsonutil.Write(w, http.StatusOK, map[string]any{
			"message": "Profile updated",
			"user":    viewOf(before),
		})
		return
	}

	err = h.Users.UpdateProfile(ctx, id, upd)
	if err != nil {
		if avatarRel != "" {
			_ = h.Uploads.Delete(ctx, avatarRel)
		}
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail):
			jsonutil.Error(w, http.StatusConflict, "Email already in use")
		case errors.Is(err, userstore.ErrNotFound):
			jsonutil.Error(w, http.StatusNotFound, "User not found")
		default:
			h.serverError(w, r, "update profile failed", err)
		}
		return
	}

	// replaced avatars are removed once the new one is stored
	if avatarRel != "" && strings.HasPrefix(before.AvatarURL, uploads.PublicPrefix) {
		old := strings.TrimPrefix(before.AvatarURL, uploads.PublicPrefix)
		if err := h.Uploads.Delete(ctx, old); err != nil {
			h.Log.Warn("remove old avatar failed", zap.String("path", old), zap.Error(err))
		}
	}

	h.AuditLog.ProfileUpdated(ctx, r, id, changed)
	if passwordChanged {
		h.AuditLog.PasswordChanged(ctx, r, id)
	}

	after, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.serverError(w, r, "reload profile failed", err)
		return
	}
	jsonutil.Write(w, http.StatusOK, map[string]any{
		"message": "Profile updated",
		"user":    viewOf(after),
	})
}

// formInput reads the text fields of a parsed multipart form. Only keys
// actually present are set.
func formInput(r *http.Request) profileInput {
	var in profileInput
	get := func(key string) *string {
		vals, ok := r.MultipartForm.Value[key]
		if !ok || len(vals) == 0 {
			return nil
		}
		v := vals[0]
		return &v
	}
	in.Username = get("username")
	in.Email = get("email")
	in.Organization = get("organization")
	in.Password = get("password")
	return in
}

// saveAvatar stores the "avatar" form file, if any, and returns its
// relative upload path. A non-zero status reports a client error.
func (h *Handler) saveAvatar(r *http.Request, userID primitive.ObjectID) (rel string, status int, msg string, err error) {
	file, header, ferr := r.FormFile("avatar")
	if errors.Is(ferr, http.ErrMissingFile) {
		return "", 0, "", nil
	}
	if ferr != nil {
		return "", http.StatusBadRequest, "Invalid avatar upload", nil
	}
	defer file.Close()

	if header.Size == 0 {
		return "", http.StatusBadRequest, "Avatar file is empty", nil
	}

	br := bufio.NewReader(file)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return "", http.StatusBadRequest, "Avatar must be an image", nil
	}

	rel = uploads.AvatarPath(userID.Hex(), header.Filename)
	if err := h.Uploads.Put(r.Context(), rel, br, contentType); err != nil {
		return "", 0, "", err
	}
	return rel, 0, "", nil
}
