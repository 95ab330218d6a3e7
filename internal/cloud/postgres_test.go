package cloud

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/model"
)

// openTestDB connects to MINDSPEND_TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("MINDSPEND_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("MINDSPEND_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func testUID(t *testing.T, db *DB) string {
	t.Helper()
	uid := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = db.DeleteUser(context.Background(), uid) })
	return uid
}

func TestDB_UserMerge(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid := testUID(t, db)

	email := "a@example.com"
	require.NoError(t, db.MergeUser(ctx, uid, UserUpdate{Email: &email}))

	p := model.Profile{HourlyWage: 20, WorkingDaysPerYear: 220, MonthlyExpenses: 1500}
	require.NoError(t, db.MergeUser(ctx, uid, UserUpdate{Profile: &p}))

	doc, err := db.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, email, doc.Email)
	require.NotNil(t, doc.Profile)
	assert.Equal(t, p, *doc.Profile)

	require.NoError(t, db.DeleteUser(ctx, uid))
	_, err = db.GetUser(ctx, uid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDB_PurchaseLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	uid := testUID(t, db)

	base := time.Now().UTC().Truncate(time.Millisecond)
	first := model.NewPurchaseRecord{Price: 10, Label: "book"}.Materialize(uuid.NewString(), base.Add(-time.Hour))
	second := model.NewPurchaseRecord{Price: 20, Label: "shoes"}.Materialize(uuid.NewString(), base)
	require.NoError(t, db.InsertPurchase(ctx, uid, first))
	require.NoError(t, db.InsertPurchase(ctx, uid, second))

	list, err := db.ListPurchases(ctx, uid, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.True(t, second.Timestamp.Equal(list[0].Timestamp))

	regret := true
	require.NoError(t, db.UpdatePurchaseDecision(ctx, uid, first.ID, model.DecisionBought, &regret, base))
	list, err = db.ListPurchases(ctx, uid, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = db.ListPurchases(ctx, uid, 10)
	require.NoError(t, err)
	updated := list[1]
	assert.Equal(t, model.DecisionBought, updated.Decision)
	require.NotNil(t, updated.Regret)
	assert.True(t, *updated.Regret)
	assert.Equal(t, first.Label, updated.Label)
	assert.Equal(t, first.Price, updated.Price)

	err = db.UpdatePurchaseDecision(ctx, uid, "missing", model.DecisionSkipped, nil, base)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := db.GetPurchase(ctx, uid, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "book", got.Label)
	assert.Equal(t, model.DecisionBought, got.Decision)
	assert.True(t, first.Timestamp.Equal(got.Timestamp))

	_, err = db.GetPurchase(ctx, uid, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.DeletePurchase(ctx, uid, first.ID))
	require.NoError(t, db.DeletePurchase(ctx, uid, first.ID))
	list, err = db.ListPurchases(ctx, uid, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
