// internal/app/features/account/handler.go
package account

import (
	"net/http"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/store/activity"
	"github.com/dalemusser/resolvehub/internal/app/store/resetcodes"
	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/auditlog"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/mailer"
	"github.com/dalemusser/resolvehub/internal/app/system/ratelimit"
	"github.com/dalemusser/resolvehub/internal/app/system/tokens"
	"github.com/dalemusser/resolvehub/internal/app/system/uploads"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxUpload caps profile form bodies (avatar included).
const DefaultMaxUpload = 5 << 20

// Handler serves registration, login, password reset, and the signed-in
// user's profile and history.
type Handler struct {
	Users     *userstore.Store
	History   *activity.Store
	Resets    *resetcodes.Store
	Mailer    *mailer.Mailer
	Tokens    *tokens.Issuer
	Limiter   *ratelimit.LoginLimiter
	Uploads   uploads.Store
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
	MaxUpload int64
}

// NewHandler constructs an account Handler. limiter may be nil to disable
// login throttling.
func NewHandler(
	db *mongo.Database,
	historyCollection string,
	issuer *tokens.Issuer,
	limiter *ratelimit.LoginLimiter,
	store uploads.Store,
	mail *mailer.Mailer,
	resetExpiry time.Duration,
	audit *auditlog.Logger,
	maxUpload int64,
	logger *zap.Logger,
) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	return &Handler{
		Users:     userstore.New(db),
		History:   activity.New(db, historyCollection),
		Resets:    resetcodes.New(db, resetExpiry),
		Mailer:    mail,
		Tokens:    issuer,
		Limiter:   limiter,
		Uploads:   store,
		AuditLog:  audit,
		Log:       logger,
		MaxUpload: maxUpload,
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	jsonutil.Error(w, http.StatusInternalServerError, "internal server error")
}
