package resetcodes_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/store/resetcodes"
	"github.com/dalemusser/resolvehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNew_DefaultExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)

	if got := resetcodes.New(db, 0).Expiry(); got != resetcodes.DefaultExpiry {
		t.Errorf("expected default expiry %v, got %v", resetcodes.DefaultExpiry, got)
	}
	if got := resetcodes.New(db, -time.Minute).Expiry(); got != resetcodes.DefaultExpiry {
		t.Errorf("expected default expiry for negative input, got %v", got)
	}
	if got := resetcodes.New(db, 30*time.Minute).Expiry(); got != 30*time.Minute {
		t.Errorf("expected custom expiry, got %v", got)
	}
}

func TestStore_CreateAndVerify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resetcodes.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	code, err := store.Create(ctx, userID, "Ana@Example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(code) != resetcodes.CodeLength {
		t.Fatalf("expected %d-digit code, got %q", resetcodes.CodeLength, code)
	}

	var raw bson.M
	if err := db.Collection(resetcodes.Collection).FindOne(ctx, bson.M{"email": "ana@example.com"}).Decode(&raw); err != nil {
		t.Fatalf("load stored reset: %v", err)
	}
	if raw["code_hash"] == code {
		t.Error("code stored in plain text")
	}

	rec, err := store.VerifyCode(ctx, "ana@example.com", code)
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if rec.UserID != userID {
		t.Errorf("UserID = %s, want %s", rec.UserID.Hex(), userID.Hex())
	}

	if _, err := store.VerifyCode(ctx, "ana@example.com", code); !errors.Is(err, resetcodes.ErrNotFound) {
		t.Errorf("second use: expected ErrNotFound, got %v", err)
	}
}

func TestStore_VerifyCode_WrongCodeAndAttemptLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resetcodes.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, primitive.NewObjectID(), "bo@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	for i := 0; i < resetcodes.MaxVerifyAttempts; i++ {
		if _, err := store.VerifyCode(ctx, "bo@example.com", wrong); !errors.Is(err, resetcodes.ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i+1, err)
		}
	}
	if _, err := store.VerifyCode(ctx, "bo@example.com", code); !errors.Is(err, resetcodes.ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts after %d guesses, got %v", resetcodes.MaxVerifyAttempts, err)
	}
}

func TestStore_VerifyCode_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resetcodes.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	code, err := store.Create(ctx, primitive.NewObjectID(), "cy@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := db.Collection(resetcodes.Collection).UpdateOne(ctx,
		bson.M{"email": "cy@example.com"},
		bson.M{"$set": bson.M{"expires_at": time.Now().Add(-time.Minute)}}); err != nil {
		t.Fatalf("expire: %v", err)
	}

	if _, err := store.VerifyCode(ctx, "cy@example.com", code); !errors.Is(err, resetcodes.ErrNotFound) {
		t.Errorf("expected ErrNotFound for expired code, got %v", err)
	}
}

func TestStore_Create_ReplacesAndLimitsSends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := resetcodes.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	var last string
	for i := 0; i < resetcodes.MaxSends; i++ {
		code, err := store.Create(ctx, userID, "di@example.com")
		if err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
		last = code
	}
	n, err := db.Collection(resetcodes.Collection).CountDocuments(ctx, bson.M{"email": "di@example.com"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected a single live code, got %d", n)
	}

	if _, err := store.Create(ctx, userID, "di@example.com"); !errors.Is(err, resetcodes.ErrTooManySends) {
		t.Errorf("expected ErrTooManySends, got %v", err)
	}
	if _, err := store.VerifyCode(ctx, "di@example.com", last); err != nil {
		t.Errorf("latest code should still verify after a refused send: %v", err)
	}
}
