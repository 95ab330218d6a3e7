package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/cloud"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/storage"
	"github.com/Veraticus/mindspend/internal/testutil"
)

func TestLocalProfileStore(t *testing.T) {
	kv := testutil.SetupDeviceStore(t)
	store := NewLocalProfileStore(kv)
	ctx := context.Background()

	p, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	want := testutil.Profile(testutil.WithEmergencyGoal(10000))
	require.NoError(t, store.Save(ctx, want))

	p, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, want, *p)

	err = store.Save(ctx, model.Profile{})
	require.ErrorIs(t, err, model.ErrInvalidWage)
}

func TestLocalProfileStore_CorruptProfileIsAbsent(t *testing.T) {
	kv := testutil.SetupDeviceStore(t)
	kv.MustSet(storage.KeyProfile, "not json")

	p, err := NewLocalProfileStore(kv).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCloudProfileStore_SaveMergesOwnerFields(t *testing.T) {
	fake := testutil.NewFakeCloud()
	owner := Owner{UID: "u1", Email: "a@example.com", DisplayName: "Ana"}
	store := NewCloudProfileStore(fake, nil, owner)
	ctx := context.Background()

	p, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	want := testutil.Profile()
	require.NoError(t, store.Save(ctx, want))

	doc, err := fake.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", doc.Email)
	assert.Equal(t, "Ana", doc.DisplayName)
	assert.Empty(t, doc.PhotoURL)
	require.NotNil(t, doc.Profile)
	assert.Equal(t, want, *doc.Profile)
}

func TestCloudProfileStore_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := cloud.NewProfileCache(client, time.Minute)

	fake := testutil.NewFakeCloud()
	store := NewCloudProfileStore(fake, cache, Owner{UID: "u1"})
	ctx := context.Background()

	first := testutil.Profile()
	require.NoError(t, store.Save(ctx, first))

	p, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, mr.Exists(cloud.ProfileKey("u1")))

	// Reads are served from the cache while the backend is down.
	fake.Err = assert.AnError
	p, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, *p)
	fake.Err = nil

	second := testutil.Profile(testutil.WithExpenses(3000))
	require.NoError(t, store.Save(ctx, second))
	assert.False(t, mr.Exists(cloud.ProfileKey("u1")))

	p, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, *p)
}
