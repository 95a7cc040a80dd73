// Package historyusers joins activity history with the users collection.
package historyusers

import (
	"context"

	"github.com/dalemusser/resolvehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistorySource lists raw history records.
type HistorySource interface {
	List(ctx context.Context) ([]models.HistoryRecord, error)
}

// NameResolver maps user ids to usernames; unknown ids are left out.
type NameResolver interface {
	UsernamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

// ListWithUserNames returns all history records with UserName filled in.
// Owners are resolved in a single batched lookup; records whose owner is
// gone, or whose user_id is not an ObjectID, get models.UnknownUserName. An
// owner with an empty username keeps the empty name.
func ListWithUserNames(ctx context.Context, history HistorySource, users NameResolver) ([]models.HistoryRecord, error) {
	recs, err := history.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[primitive.ObjectID]struct{}, len(recs))
	ids := make([]primitive.ObjectID, 0, len(recs))
	for _, r := range recs {
		oid, ok := r.UserID.ObjectID()
		if !ok {
			continue
		}
		if _, dup := seen[oid]; dup {
			continue
		}
		seen[oid] = struct{}{}
		ids = append(ids, oid)
	}

	names, err := users.UsernamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range recs {
		name := models.UnknownUserName
		if oid, ok := recs[i].UserID.ObjectID(); ok {
			if n, found := names[oid]; found {
				name = n
			}
		}
		recs[i].SetUserName(name)
	}
	return recs, nil
}
