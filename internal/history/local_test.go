package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/storage"
	"github.com/Veraticus/mindspend/internal/testutil"
)

// tickingClock returns a clock advancing one minute per call.
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func newLocalStore(t *testing.T) (*LocalStore, *testutil.DeviceStore) {
	t.Helper()
	kv := testutil.SetupDeviceStore(t)
	start := time.Date(2025, 6, 1, 21, 30, 0, 0, time.Local)
	return NewLocalStore(kv, WithLocalClock(tickingClock(start))), kv
}

func TestLocalStore_CreateAssignsFields(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, model.NewPurchaseRecord{Price: 25, Profile: testutil.Profile()})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, model.DefaultLabel, r.Label)
	assert.Equal(t, model.CategoryOther, r.Category)
	assert.Equal(t, model.DecisionUndecided, r.Decision)
	assert.Equal(t, 21, r.TimeOfDay)
	assert.False(t, r.Timestamp.IsZero())
	assert.Nil(t, r.Regret)
}

func TestLocalStore_RejectsInvalidRecords(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, model.NewPurchaseRecord{Price: 0})
	require.ErrorIs(t, err, model.ErrInvalidPrice)

	_, err = store.Create(ctx, model.NewPurchaseRecord{Price: 5, Category: "pets"})
	require.ErrorIs(t, err, model.ErrInvalidCategory)

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLocalStore_NoDeduplication(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, testutil.NewRecord(42, "headphones"))
	require.NoError(t, err)
	second, err := store.Create(ctx, testutil.NewRecord(42, "headphones"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second, records[0].ID)
	assert.Equal(t, first, records[1].ID)
}

func TestLocalStore_CapsAtFiftyEvictingOldest(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	ids := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		id, err := store.Create(ctx, testutil.NewRecord(float64(i+1), fmt.Sprintf("item %d", i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := store.List(ctx, 100)
	require.NoError(t, err)
	require.Len(t, records, LocalCap)

	assert.Equal(t, ids[59], records[0].ID)
	assert.Equal(t, ids[10], records[LocalCap-1].ID)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i-1].Timestamp.After(records[i].Timestamp))
	}

	limited, err := store.List(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, limited, 5)
}

func TestLocalStore_UpdateDecisionTouchesOnlyDecisionFields(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testutil.NewRecord(80, "jacket"))
	require.NoError(t, err)
	before, err := Find(ctx, store, id)
	require.NoError(t, err)

	require.NoError(t, store.UpdateDecision(ctx, id, model.DecisionSkipped, nil))
	after, err := Find(ctx, store, id)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionSkipped, after.Decision)
	assert.Nil(t, after.Regret)
	assert.Nil(t, after.RegretCheckedAt)

	after.Decision = before.Decision
	assert.Equal(t, before, after)

	regret := false
	require.NoError(t, store.UpdateDecision(ctx, id, model.DecisionBought, &regret))
	after, err = Find(ctx, store, id)
	require.NoError(t, err)
	require.NotNil(t, after.Regret)
	assert.False(t, *after.Regret)
	require.NotNil(t, after.RegretCheckedAt)

	after.Decision = before.Decision
	after.Regret = nil
	after.RegretCheckedAt = nil
	assert.Equal(t, before, after)
}

func TestLocalStore_UpdateDecisionErrors(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	err := store.UpdateDecision(ctx, "missing", model.DecisionBought, nil)
	require.ErrorIs(t, err, ErrRecordNotFound)

	id, err := store.Create(ctx, testutil.NewRecord(10, "x"))
	require.NoError(t, err)
	err = store.UpdateDecision(ctx, id, "maybe", nil)
	require.ErrorIs(t, err, model.ErrInvalidDecision)
}

func TestLocalStore_DeleteIsIdempotent(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	keep, err := store.Create(ctx, testutil.NewRecord(10, "keep"))
	require.NoError(t, err)
	drop, err := store.Create(ctx, testutil.NewRecord(20, "drop"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, drop))
	require.NoError(t, store.Delete(ctx, drop))
	require.NoError(t, store.Delete(ctx, "never-existed"))

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, keep, records[0].ID)
}

func TestLocalStore_CorruptHistoryReadsAsEmpty(t *testing.T) {
	store, kv := newLocalStore(t)
	ctx := context.Background()
	kv.MustSet(storage.KeyPurchaseHistory, "{definitely not an array")

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	id, err := store.Create(ctx, testutil.NewRecord(5, "fresh start"))
	require.NoError(t, err)
	records, err = store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
}

func TestLocalStore_SnapshotsProfile(t *testing.T) {
	store, _ := newLocalStore(t)
	ctx := context.Background()

	rec := testutil.NewRecord(100, "desk")
	goal := 5000.0
	rec.Profile.EmergencyFundGoal = &goal

	id, err := store.Create(ctx, rec)
	require.NoError(t, err)
	goal = 1

	got, err := Find(ctx, store, id)
	require.NoError(t, err)
	require.NotNil(t, got.Profile.EmergencyFundGoal)
	assert.Equal(t, 5000.0, *got.Profile.EmergencyFundGoal)
}
