package models_test

import (
	"encoding/json"
	"testing"

	"github.com/dalemusser/resolvehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserRef_DecodesObjectIDAndString(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name string
		doc  bson.M
		want models.UserRef
	}{
		{"objectid", bson.M{"user_id": oid}, models.UserRef(oid.Hex())},
		{"hex string", bson.M{"user_id": oid.Hex()}, models.UserRef(oid.Hex())},
		{"legacy string", bson.M{"user_id": "guest"}, models.UserRef("guest")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := bson.Marshal(tt.doc)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var rec models.HistoryRecord
			if err := bson.Unmarshal(raw, &rec); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if rec.UserID != tt.want {
				t.Errorf("UserID = %q, want %q", rec.UserID, tt.want)
			}
		})
	}
}

func TestUserRef_EncodesValidHexAsObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	rec := models.HistoryRecord{ID: primitive.NewObjectID(), UserID: models.RefTo(oid)}

	raw, err := bson.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back bson.M
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, ok := back["user_id"].(primitive.ObjectID)
	if !ok {
		t.Fatalf("user_id stored as %T, want primitive.ObjectID", back["user_id"])
	}
	if got != oid {
		t.Errorf("user_id = %s, want %s", got.Hex(), oid.Hex())
	}
}

func TestHistoryRecord_PayloadRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":        id,
		"user_id":    primitive.NewObjectID(),
		"text":       "upscaled volume",
		"scale":      int32(4),
		"dataset":    "brain-ct",
		"parameters": bson.M{"epochs": int32(200)},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var rec models.HistoryRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Text != "upscaled volume" {
		t.Errorf("Text = %q", rec.Text)
	}
	if rec.Payload["dataset"] != "brain-ct" {
		t.Errorf("Payload[dataset] = %v", rec.Payload["dataset"])
	}
	if _, ok := rec.Payload["text"]; ok {
		t.Error("known field text leaked into Payload")
	}
}

func TestHistoryRecord_MarshalJSON(t *testing.T) {
	id := primitive.NewObjectID()
	owner := primitive.NewObjectID()
	rec := models.HistoryRecord{
		ID:       id,
		UserID:   models.RefTo(owner),
		Text:     "hello",
		Payload:  map[string]any{"scale": 4, "ref": owner, "meta": primitive.D{{Key: "k", Value: "v"}}},
		UserName: "alice",
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got["_id"] != id.Hex() {
		t.Errorf("_id = %v, want %s", got["_id"], id.Hex())
	}
	if got["user_id"] != owner.Hex() {
		t.Errorf("user_id = %v, want %s", got["user_id"], owner.Hex())
	}
	if got["user_name"] != "alice" {
		t.Errorf("user_name = %v", got["user_name"])
	}
	if got["scale"] != float64(4) {
		t.Errorf("scale = %v", got["scale"])
	}
	if got["ref"] != owner.Hex() {
		t.Errorf("ref = %v, want hex id", got["ref"])
	}
	meta, ok := got["meta"].(map[string]any)
	if !ok || meta["k"] != "v" {
		t.Errorf("meta = %v, want object {k:v}", got["meta"])
	}
}

func TestHistoryRecord_LenientDecode(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: id},
		{Key: "user_id", Value: nil},
		{Key: "text", Value: int32(5)},
		{Key: "banned", Value: "no"},
		{Key: "created_at", Value: "2024-05-01"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var rec models.HistoryRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.ID != id {
		t.Errorf("ID = %s, want %s", rec.ID.Hex(), id.Hex())
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if got["text"] != float64(5) {
		t.Errorf("text = %v (%T), want 5", got["text"], got["text"])
	}
	if got["banned"] != "no" {
		t.Errorf("banned = %v, want verbatim \"no\"", got["banned"])
	}
	if got["created_at"] != "2024-05-01" {
		t.Errorf("created_at = %v, want verbatim string", got["created_at"])
	}
	if v, ok := got["user_id"]; !ok || v != nil {
		t.Errorf("user_id = %v (present %v), want null", v, ok)
	}
}

func TestHistoryRecord_JSONOmitsAbsentKeys(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: id}, {Key: "history_id", Value: "h-1"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec models.HistoryRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	for _, k := range []string{"text", "banned", "user_id", "created_at", "user_name"} {
		if _, ok := got[k]; ok {
			t.Errorf("key %q emitted for a row that does not have it", k)
		}
	}
	if got["history_id"] != "h-1" || got["_id"] != id.Hex() {
		t.Errorf("got %v", got)
	}
}

func TestHistoryRecord_JSONKeepsStoredZeroValues(t *testing.T) {
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "text", Value: ""},
		{Key: "banned", Value: false},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec models.HistoryRecord
	if err := bson.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if v, ok := got["text"]; !ok || v != "" {
		t.Errorf("text = %v (present %v), want stored empty string", v, ok)
	}
	if v, ok := got["banned"]; !ok || v != false {
		t.Errorf("banned = %v (present %v), want stored false", v, ok)
	}
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
	u := models.User{ID: primitive.NewObjectID(), Username: "bob", PasswordHash: "$2a$secret"}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := got["password_hash"]; ok {
		t.Error("password hash must not be serialized")
	}
	if got["_id"] != u.ID.Hex() {
		t.Errorf("_id = %v, want %s", got["_id"], u.ID.Hex())
	}
}
