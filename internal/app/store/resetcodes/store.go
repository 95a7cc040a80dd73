// internal/app/store/resetcodes/store.go
package resetcodes

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/system/normalize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Collection holds pending password reset codes.
const Collection = "password_resets"

const (
	// CodeLength is the length of the reset code (6 digits).
	CodeLength = 6
	// DefaultExpiry is how long a reset code is valid.
	DefaultExpiry = 10 * time.Minute
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the number of guesses allowed per code.
	MaxVerifyAttempts = 5
	// MaxSends is the number of codes one address may request per SendWindow.
	MaxSends = 3
	// SendWindow is the rate limit window for code requests.
	SendWindow = 10 * time.Minute
)

var (
	// ErrNotFound is returned when no live code exists for the address.
	ErrNotFound = errors.New("reset code not found or expired")
	// ErrInvalidCode is returned when the code doesn't match.
	ErrInvalidCode = errors.New("invalid reset code")
	// ErrTooManyAttempts is returned once MaxVerifyAttempts guesses were made.
	ErrTooManyAttempts = errors.New("too many reset attempts")
	// ErrTooManySends is returned when the address asked for too many codes.
	ErrTooManySends = errors.New("too many reset requests")
)

// Reset is a pending password reset.
type Reset struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Email       string             `bson:"email"`
	CodeHash    string             `bson:"code_hash"`
	ExpiresAt   time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt   time.Time          `bson:"created_at"`
	Attempts    int                `bson:"attempts"`
	SendCount   int                `bson:"send_count"`
	WindowStart time.Time          `bson:"window_start"`
}

// Store manages password reset codes.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store. If expiry is 0 or negative, DefaultExpiry is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection(Collection),
		expiry: expiry,
	}
}

// Expiry returns how long a code stays valid.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// Indexes is the index set for Collection.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_resets_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_resets_email"),
		},
	}
}

// Create issues a new code for the user, replacing any earlier one, and
// returns the plain code to mail. Requests past MaxSends within SendWindow
// fail with ErrTooManySends.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email string) (string, error) {
	email = normalize.Email(email)
	now := time.Now().UTC()

	var existing Reset
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return "", err
	}
	found := err == nil

	sendCount := 1
	windowStart := now
	if found && now.Before(existing.WindowStart.Add(SendWindow)) {
		if existing.SendCount >= MaxSends {
			return "", ErrTooManySends
		}
		sendCount = existing.SendCount + 1
		windowStart = existing.WindowStart
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return "", err
	}
	rec := Reset{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Email:       email,
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
		SendCount:   sendCount,
		WindowStart: windowStart,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert reset: %w", err)
	}
	return code, nil
}

// VerifyCode checks code for email. A match consumes the code and returns
// the reset record. Every guess, right or wrong, counts as an attempt.
func (s *Store) VerifyCode(ctx context.Context, email, code string) (*Reset, error) {
	var rec Reset
	err := s.c.FindOne(ctx, bson.M{
		"email":      normalize.Email(email),
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if rec.Attempts >= MaxVerifyAttempts {
		return nil, ErrTooManyAttempts
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": rec.ID}, bson.M{"$inc": bson.M{"attempts": 1}}); err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		return nil, ErrInvalidCode
	}

	// single use
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": rec.ID}); err != nil {
		return nil, err
	}
	return &rec, nil
}

// generateCode returns a uniform random code in 100000-999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
