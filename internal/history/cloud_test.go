package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/testutil"
)

func newCloudStore(t *testing.T) (*CloudStore, *testutil.FakeCloud) {
	t.Helper()
	fake := testutil.NewFakeCloud()
	store := NewCloudStore(fake, "user-1")
	store.now = tickingClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return store, fake
}

func TestCloudStore_NoCap(t *testing.T) {
	store, fake := newCloudStore(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := store.Create(ctx, testutil.NewRecord(float64(i+1), fmt.Sprintf("item %d", i)))
		require.NoError(t, err)
	}

	assert.Equal(t, 60, fake.PurchaseCount("user-1"))

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, DefaultListLimit)
	assert.Equal(t, "item 59", records[0].Label)

	records, err = store.List(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, records, 60)
}

func TestCloudStore_FindOlderThanListWindow(t *testing.T) {
	store, _ := newCloudStore(t)
	ctx := context.Background()

	oldest, err := store.Create(ctx, testutil.NewRecord(5, "first"))
	require.NoError(t, err)
	for i := 0; i < DefaultListLimit+5; i++ {
		_, err := store.Create(ctx, testutil.NewRecord(float64(i+10), fmt.Sprintf("item %d", i)))
		require.NoError(t, err)
	}

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	for _, r := range records {
		require.NotEqual(t, oldest, r.ID)
	}

	require.NoError(t, store.UpdateDecision(ctx, oldest, model.DecisionSkipped, nil))

	rec, err := Find(ctx, store, oldest)
	require.NoError(t, err)
	assert.Equal(t, "first", rec.Label)
	assert.Equal(t, model.DecisionSkipped, rec.Decision)

	_, err = Find(ctx, store, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCloudStore_IsolatedByUser(t *testing.T) {
	store, fake := newCloudStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, testutil.NewRecord(10, "mine"))
	require.NoError(t, err)

	other := NewCloudStore(fake, "user-2")
	records, err := other.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCloudStore_UpdateDecision(t *testing.T) {
	store, _ := newCloudStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testutil.NewRecord(99, "console"))
	require.NoError(t, err)
	before, err := Find(ctx, store, id)
	require.NoError(t, err)

	regret := true
	require.NoError(t, store.UpdateDecision(ctx, id, model.DecisionBought, &regret))

	after, err := Find(ctx, store, id)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionBought, after.Decision)
	require.NotNil(t, after.Regret)
	assert.True(t, *after.Regret)
	require.NotNil(t, after.RegretCheckedAt)

	after.Decision, after.Regret, after.RegretCheckedAt = before.Decision, nil, nil
	assert.Equal(t, before, after)

	err = store.UpdateDecision(ctx, "missing", model.DecisionSkipped, nil)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCloudStore_DeleteMissingIsSuccess(t *testing.T) {
	store, fake := newCloudStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testutil.NewRecord(5, "gum"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	require.NoError(t, store.Delete(ctx, id))
	assert.Equal(t, 0, fake.PurchaseCount("user-1"))
}

func TestCloudStore_PropagatesBackendErrors(t *testing.T) {
	store, fake := newCloudStore(t)
	ctx := context.Background()
	boom := errors.New("unavailable")
	fake.Err = boom

	_, err := store.Create(ctx, testutil.NewRecord(5, "gum"))
	require.ErrorIs(t, err, boom)

	_, err = store.List(ctx, 0)
	require.ErrorIs(t, err, boom)

	err = store.UpdateDecision(ctx, "id", model.DecisionSkipped, nil)
	require.ErrorIs(t, err, boom)

	err = store.Delete(ctx, "id")
	require.ErrorIs(t, err, boom)
}
