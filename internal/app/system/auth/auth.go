package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/tokens"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated caller injected into r.Context().
type SessionUser struct {
	ID           string
	Username     string
	Email        string
	Organization string
	Role         string
}

// UserFetcher loads the current state of a user on each request, so bans
// and role changes apply to tokens that were issued earlier. It returns nil
// when the user does not exist or must not be let in (banned).
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u directly, bypassing token verification.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Bearer-token manager                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Manager verifies bearer tokens and resolves them to users.
type Manager struct {
	tokens  *tokens.Issuer
	fetcher UserFetcher
	log     *zap.Logger
}

// NewManager builds a Manager. fetcher may be nil, in which case the token
// claims alone identify the user.
func NewManager(issuer *tokens.Issuer, fetcher UserFetcher, logger *zap.Logger) *Manager {
	return &Manager{tokens: issuer, fetcher: fetcher, log: logger}
}

// Tokens exposes the issuer so the login handler can sign new tokens.
func (m *Manager) Tokens() *tokens.Issuer {
	return m.tokens
}

// LoadBearerUser injects the user into context when the request carries a
// valid "Authorization: Bearer" token. Missing or bad tokens leave the
// request anonymous; the Require* middlewares decide what that means.
func (m *Manager) LoadBearerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.Parse(raw)
		if err != nil {
			if !errors.Is(err, tokens.ErrInvalidToken) {
				m.log.Warn("bearer token parse failed", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		var u *SessionUser
		if m.fetcher != nil {
			u = m.fetcher.FetchUser(r.Context(), claims.UserID)
		} else {
			u = &SessionUser{ID: claims.UserID, Role: claims.Role}
		}
		if u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects anonymous requests with 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			jsonutil.Error(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects anonymous requests with 401 and signed-in users
// without one of the allowed roles with 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonutil.Error(w, http.StatusUnauthorized, "Missing or invalid token")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				jsonutil.Error(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, raw, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
