// internal/app/store/activity/store.go
package activity

import (
	"context"
	"time"

	"github.com/dalemusser/resolvehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is where the frontend's activity feed has always lived.
const DefaultCollection = "tweet"

// Store manages activity history records.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store over the named collection. An empty name
// selects DefaultCollection.
func New(db *mongo.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{c: db.Collection(collection)}
}

// Collection reports the backing collection name.
func (s *Store) Collection() string {
	return s.c.Name()
}

// Create records a history entry, filling in the id and timestamp when unset.
func (s *Store) Create(ctx context.Context, rec models.HistoryRecord) (models.HistoryRecord, error) {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.HistoryRecord{}, err
	}
	return rec, nil
}

// List returns every record in insertion order.
func (s *Store) List(ctx context.Context) ([]models.HistoryRecord, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// ListByUser returns a user's records, newest first. Both stored forms of
// user_id (ObjectID and hex string) match.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.HistoryRecord, error) {
	filter := bson.M{"user_id": bson.M{"$in": bson.A{userID, userID.Hex()}}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, filter, opts)
}

func (s *Store) find(ctx context.Context, filter any, opts *options.FindOptions) ([]models.HistoryRecord, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.HistoryRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
