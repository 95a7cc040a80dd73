package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/resolvehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plaintext password of every fixture user.
const DefaultPassword = "s3cret-pass"

// HistoryCollection is the history collection name fixtures write to.
const HistoryCollection = "tweet"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateUser inserts a user with DefaultPassword. email is stored as given.
func (f *Fixtures) CreateUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, username, email, models.RoleUser, false)
}

// CreateAdmin inserts a user holding the admin role.
func (f *Fixtures) CreateAdmin(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, username, email, models.RoleAdmin, false)
}

// CreateBannedUser inserts a user with banned=true.
func (f *Fixtures) CreateBannedUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, username, email, models.RoleUser, true)
}

func (f *Fixtures) insertUser(ctx context.Context, username, email, role string, banned bool) models.User {
	f.t.Helper()

	// MinCost keeps fixture setup fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	u := models.User{
		ID:           primitive.NewObjectID(),
		Username:     username,
		Email:        email,
		Organization: "Test Lab",
		Banned:       banned,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("insert user %q: %v", email, err)
	}
	return u
}

// CreateHistory inserts an activity record owned by userID. extra fields
// are stored alongside the known ones.
func (f *Fixtures) CreateHistory(ctx context.Context, userID models.UserRef, text string, extra map[string]any) models.HistoryRecord {
	f.t.Helper()

	rec := models.HistoryRecord{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		Payload:   extra,
	}
	if _, err := f.db.Collection(HistoryCollection).InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("insert history: %v", err)
	}
	return rec
}
