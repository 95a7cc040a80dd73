package account_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/resolvehub/internal/domain/models"
	"github.com/dalemusser/resolvehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHistory_RequiresToken(t *testing.T) {
	e := setup(t, nil)

	rec := e.do(testutil.NewRequest("GET", "/history"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHistory_OwnRecordsNewestFirst(t *testing.T) {
	e := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	me := e.fixtures.CreateUser(ctx, "mia", "mia@example.com")
	other := e.fixtures.CreateUser(ctx, "otto", "otto@example.com")
	e.fixtures.CreateHistory(ctx, models.RefTo(me.ID), "first", map[string]any{
		"history_id":        "h-1",
		"train_status":      "trained",
		"preprocess_status": "preprocessed",
	})
	e.fixtures.CreateHistory(ctx, models.RefTo(other.ID), "not mine", nil)
	// legacy row keyed by the hex string
	if _, err := e.db.Collection(testutil.HistoryCollection).InsertOne(ctx, bson.M{
		"_id": primitive.NewObjectID(), "user_id": me.ID.Hex(), "history_id": "h-2",
	}); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	rec := e.do(e.bearer(t, testutil.NewRequest("GET", "/history"), me.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var recs []map[string]any
	rec.DecodeJSON(t, &recs)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(recs), recs)
	}
	if recs[0]["history_id"] != "h-2" || recs[1]["history_id"] != "h-1" {
		t.Errorf("expected newest first, got %v then %v", recs[0]["history_id"], recs[1]["history_id"])
	}
	if recs[1]["train_status"] != "trained" || recs[1]["preprocess_status"] != "preprocessed" {
		t.Errorf("payload fields not returned: %v", recs[1])
	}
	for _, r := range recs {
		if r["user_id"] != me.ID.Hex() {
			t.Errorf("foreign record returned: %v", r)
		}
	}
}

func TestHistory_EmptyIsArray(t *testing.T) {
	e := setup(t, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	me := e.fixtures.CreateUser(ctx, "new", "new@example.com")

	rec := e.do(e.bearer(t, testutil.NewRequest("GET", "/history"), me.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "[]")
}
