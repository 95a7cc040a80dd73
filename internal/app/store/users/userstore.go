package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/system/normalize"
	"github.com/dalemusser/resolvehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the users collection.
const Collection = "users"

var (
	// ErrNotFound is returned when no user matches the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when an insert or update collides with another user's email.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNoValidFields is returned when an admin update carries none of the editable fields.
	ErrNoValidFields = errors.New("no valid fields to update")
	// ErrInvalidField is returned when an editable field has the wrong JSON type.
	ErrInvalidField = errors.New("invalid field value")
)

// EditableFields are the only fields the admin API may change.
var EditableFields = []string{"banned", "username", "email", "organization"}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// List returns every user in insertion order.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads a user by ObjectID. Returns ErrNotFound if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns ErrNotFound if absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields. The caller supplies
// PasswordHash; Create never sees a plaintext password.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = normalize.Name(u.Username)
	u.Organization = normalize.Name(u.Organization)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// EditableUpdate filters an arbitrary JSON object down to EditableFields and
// checks their types. Unknown keys are dropped silently. It returns
// ErrNoValidFields when nothing editable remains and an error wrapping
// ErrInvalidField when a kept key has the wrong type.
func EditableUpdate(raw map[string]any) (bson.M, error) {
	set := bson.M{}
	for _, field := range EditableFields {
		v, ok := raw[field]
		if !ok {
			continue
		}
		switch field {
		case "banned":
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a boolean", ErrInvalidField, field)
			}
			set[field] = b
		case "email":
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidField, field)
			}
			set[field] = normalize.Email(str)
		default:
			str, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidField, field)
			}
			set[field] = normalize.Name(str)
		}
	}
	if len(set) == 0 {
		return nil, ErrNoValidFields
	}
	return set, nil
}

// UpdateFields applies a partial $set built by EditableUpdate and stamps
// updated_at. Returns ErrNotFound when the id matches nothing.
func (s *Store) UpdateFields(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	if len(set) == 0 {
		return ErrNoValidFields
	}
	doc := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range set {
		doc[k] = v
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": doc})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileUpdate holds the self-service fields; nil pointers are left alone.
type ProfileUpdate struct {
	Username     *string
	Email        *string
	Organization *string
	AvatarURL    *string
	PasswordHash *string
}

// UpdateProfile applies a self-service profile change.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{}
	if upd.Username != nil {
		set["username"] = normalize.Name(*upd.Username)
	}
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.Organization != nil {
		set["organization"] = normalize.Name(*upd.Organization)
	}
	if upd.AvatarURL != nil {
		set["avatar_url"] = *upd.AvatarURL
	}
	if upd.PasswordHash != nil {
		set["password_hash"] = *upd.PasswordHash
	}
	return s.UpdateFields(ctx, id, set)
}

// SetRole assigns role to the user with the given email.
func (s *Store) SetRole(ctx context.Context, email, role string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": normalize.Email(email)},
		bson.M{"$set": bson.M{"role": normalize.Role(role), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user by ID. Deleting an id that does not exist is not an
// error; the returned count is 0 in that case.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// UsernamesByIDs resolves ids to usernames in one round trip. Ids with no
// matching user are absent from the result.
func (s *Store) UsernamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	proj := options.Find().SetProjection(bson.M{"_id": 1, "username": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID       primitive.ObjectID `bson:"_id"`
			Username string             `bson:"username"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Username
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
