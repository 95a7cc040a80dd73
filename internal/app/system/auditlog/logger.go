// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/dalemusser/resolvehub/internal/app/store/audit"
	"github.com/dalemusser/resolvehub/internal/app/system/auth"
	"github.com/dalemusser/resolvehub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls registration, login, and profile events.
	Auth string
	// Admin controls admin API mutations (update, ban, delete).
	Admin string
}

// ValidMode reports whether s is one of the destination settings.
func ValidMode(s string) bool {
	switch s {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op, so handlers and tests may leave it unset.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = ModeAll
	}

	if setting == ModeOff {
		return
	}
	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// base fills in the request context shared by every event.
func base(r *http.Request, category, eventType string, userID *primitive.ObjectID, success bool) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
	if u, ok := auth.CurrentUser(r); ok {
		if oid, err := primitive.ObjectIDFromHex(u.ID); err == nil {
			e.ActorID = &oid
		}
	}
	return e
}

// --- Authentication Events ---

// Registered logs a self-service registration.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventUserRegistered, &userID, true)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginSuccess, &userID, true)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login attempt for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, nil, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_email": attemptedEmail}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a login attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, &userID, false)
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedBanned logs a login attempt by a banned user.
func (l *Logger) LoginFailedBanned(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedUserBanned, &userID, false)
	e.FailureReason = "account banned"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login attempt rejected by the limiter.
// limitType is "ip" or "email".
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, limitType string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, nil, false)
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"email": email, "limit_type": limitType}
	l.Log(ctx, e)
}

// ProfileUpdated logs a self-service profile change.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID primitive.ObjectID, fields []string) {
	e := base(r, audit.CategoryAuth, audit.EventProfileUpdated, &userID, true)
	e.Details = map[string]string{"fields_changed": joinSorted(fields)}
	l.Log(ctx, e)
}

// PasswordChanged logs a password change from the profile page.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, base(r, audit.CategoryAuth, audit.EventPasswordChanged, &userID, true))
}

// PasswordResetRequested logs a reset code request. userID is nil when the
// address matched no account.
func (l *Logger) PasswordResetRequested(ctx context.Context, r *http.Request, userID *primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordResetRequested, userID, userID != nil)
	if userID == nil {
		e.FailureReason = "user not found"
	}
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// PasswordResetCompleted logs a password set through a reset code.
func (l *Logger) PasswordResetCompleted(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordResetCompleted, &userID, true)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// PasswordResetFailed logs a rejected reset code. reason is the store error.
func (l *Logger) PasswordResetFailed(ctx context.Context, r *http.Request, email, reason string) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordResetFailed, nil, false)
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// --- Admin Events ---

// UserUpdated logs an admin edit. fields are the keys that were written.
func (l *Logger) UserUpdated(ctx context.Context, r *http.Request, targetUserID primitive.ObjectID, fields []string) {
	e := base(r, audit.CategoryAdmin, audit.EventUserUpdated, &targetUserID, true)
	e.Details = map[string]string{"fields_changed": joinSorted(fields)}
	l.Log(ctx, e)
}

// UserBanned logs an admin setting banned=true.
func (l *Logger) UserBanned(ctx context.Context, r *http.Request, targetUserID primitive.ObjectID) {
	l.Log(ctx, base(r, audit.CategoryAdmin, audit.EventUserBanned, &targetUserID, true))
}

// UserUnbanned logs an admin setting banned=false.
func (l *Logger) UserUnbanned(ctx context.Context, r *http.Request, targetUserID primitive.ObjectID) {
	l.Log(ctx, base(r, audit.CategoryAdmin, audit.EventUserUnbanned, &targetUserID, true))
}

// UserDeleted logs an admin delete. existed is false when the id matched nothing.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, targetUserID primitive.ObjectID, existed bool) {
	e := base(r, audit.CategoryAdmin, audit.EventUserDeleted, &targetUserID, true)
	e.Details = map[string]string{"existed": boolToString(existed)}
	l.Log(ctx, e)
}

func joinSorted(fields []string) string {
	s := append([]string(nil), fields...)
	sort.Strings(s)
	return strings.Join(s, ",")
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
