// internal/domain/models/history.go
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// UnknownUserName is shown for history rows whose owner no longer exists.
const UnknownUserName = "Unknown"

// UserRef is a soft reference from an activity record to its owning user.
//
// Rows written by the web app store user_id as an ObjectID; rows imported by
// the training tools store the hex string. Both decode to the hex form here,
// and a valid hex id is written back as an ObjectID.
type UserRef string

// RefTo returns the reference for a user id.
func RefTo(id primitive.ObjectID) UserRef {
	return UserRef(id.Hex())
}

// ObjectID returns the referenced id, or false if the stored value is not a
// valid ObjectID hex string.
func (u UserRef) ObjectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(string(u))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (u UserRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if oid, ok := u.ObjectID(); ok {
		return bson.MarshalValue(oid)
	}
	return bson.MarshalValue(string(u))
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (u *UserRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bsoncore.Value{Type: t, Data: data}
	switch t {
	case bsontype.ObjectID:
		*u = UserRef(v.ObjectID().Hex())
	case bsontype.String:
		*u = UserRef(v.StringValue())
	case bsontype.Null, bsontype.Undefined:
		*u = ""
	default:
		return fmt.Errorf("user_id: unsupported bson type %s", t)
	}
	return nil
}

// HistoryRecord is one activity entry. Fields the server does not know
// about are kept in Payload and round-trip unchanged.
//
// Rows come from more than one writer, so decoding is lenient: a known key
// holding an unexpected type (a numeric text, a string created_at) is kept
// verbatim in Payload instead of failing the whole listing.
type HistoryRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    UserRef            `bson:"user_id"`
	Text      string             `bson:"text,omitempty"`
	Banned    bool               `bson:"banned"`
	CreatedAt time.Time          `bson:"created_at,omitempty"`
	Payload   map[string]any     `bson:",inline"`

	// UserName is filled in by the admin history join; it is never stored.
	UserName string `bson:"-"`

	present fieldSet
	joined  bool
}

type fieldSet uint8

const (
	hasUserID fieldSet = 1 << iota
	hasText
	hasBanned
)

// SetUserName records the owner's name from a join. The name is emitted even
// when empty.
func (h *HistoryRecord) SetUserName(name string) {
	h.UserName = name
	h.joined = true
}

// UnmarshalBSON implements bson.Unmarshaler.
func (h *HistoryRecord) UnmarshalBSON(data []byte) error {
	elems, err := bson.Raw(data).Elements()
	if err != nil {
		return err
	}

	*h = HistoryRecord{}
	for _, e := range elems {
		key, val := e.Key(), e.Value()
		switch key {
		case "_id":
			if oid, ok := val.ObjectIDOK(); ok {
				h.ID = oid
				continue
			}
		case "user_id":
			switch val.Type {
			case bsontype.ObjectID:
				h.UserID = UserRef(val.ObjectID().Hex())
				h.present |= hasUserID
				continue
			case bsontype.String:
				h.UserID = UserRef(val.StringValue())
				h.present |= hasUserID
				continue
			}
		case "text":
			if s, ok := val.StringValueOK(); ok {
				h.Text = s
				h.present |= hasText
				continue
			}
		case "banned":
			if b, ok := val.BooleanOK(); ok {
				h.Banned = b
				h.present |= hasBanned
				continue
			}
		case "created_at":
			if ms, ok := val.DateTimeOK(); ok {
				h.CreatedAt = time.UnixMilli(ms).UTC()
				continue
			}
		}

		var v any
		if err := val.Unmarshal(&v); err != nil {
			return fmt.Errorf("history field %q: %w", key, err)
		}
		if h.Payload == nil {
			h.Payload = make(map[string]any)
		}
		h.Payload[key] = v
	}
	return nil
}

// MarshalJSON flattens Payload next to the known fields so the admin grid
// sees the record the way it is stored. Known keys are emitted only when the
// row has them.
func (h HistoryRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Payload)+6)
	for k, v := range h.Payload {
		out[k] = jsonValue(v)
	}
	if !h.ID.IsZero() {
		out["_id"] = h.ID.Hex()
	}
	if h.UserID != "" || h.present&hasUserID != 0 {
		out["user_id"] = string(h.UserID)
	}
	if h.Text != "" || h.present&hasText != 0 {
		out["text"] = h.Text
	}
	if h.Banned || h.present&hasBanned != 0 {
		out["banned"] = h.Banned
	}
	if !h.CreatedAt.IsZero() {
		out["created_at"] = h.CreatedAt
	}
	if h.joined || h.UserName != "" {
		out["user_name"] = h.UserName
	}
	return json.Marshal(out)
}

// jsonValue converts driver-decoded values into shapes encoding/json renders
// naturally (ids as hex strings, ordered documents as objects).
func jsonValue(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = jsonValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = jsonValue(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = jsonValue(e)
		}
		return m
	case primitive.A:
		a := make([]any, len(t))
		for i, e := range t {
			a[i] = jsonValue(e)
		}
		return a
	default:
		return v
	}
}
