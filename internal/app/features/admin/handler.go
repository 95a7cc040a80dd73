// internal/app/features/admin/handler.go
package admin

import (
	"net/http"

	"github.com/dalemusser/resolvehub/internal/app/store/activity"
	userstore "github.com/dalemusser/resolvehub/internal/app/store/users"
	"github.com/dalemusser/resolvehub/internal/app/system/auditlog"
	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin JSON API: user management and the activity
// history view.
type Handler struct {
	Users    *userstore.Store
	History  *activity.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs an admin Handler over db. historyCollection names
// the activity collection; empty selects the default.
func NewHandler(db *mongo.Database, historyCollection string, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		History:  activity.New(db, historyCollection),
		AuditLog: audit,
		Log:      logger,
	}
}

// userID parses the {id} path parameter, writing 400 when it is not an
// ObjectID hex string.
func userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.Error(w, http.StatusBadRequest, "Invalid user ID")
		return primitive.NilObjectID, false
	}
	return oid, true
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	jsonutil.Error(w, http.StatusInternalServerError, "internal server error")
}
