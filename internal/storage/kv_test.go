package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStorage opens a migrated in-memory store.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteStorage_GetSetRemove(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.Get(ctx, KeyProfile)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, KeyProfile, `{"hourlyWage":20}`))
	got, err := store.Get(ctx, KeyProfile)
	require.NoError(t, err)
	assert.Equal(t, `{"hourlyWage":20}`, got)

	require.NoError(t, store.Set(ctx, KeyProfile, `{"hourlyWage":25}`))
	got, err = store.Get(ctx, KeyProfile)
	require.NoError(t, err)
	assert.Equal(t, `{"hourlyWage":25}`, got)

	require.NoError(t, store.Set(ctx, KeyGuestMode, "true"))
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyGuestMode, KeyProfile}, keys)

	require.NoError(t, store.Remove(ctx, KeyGuestMode, KeyProfile, "never-set"))
	_, err = store.Get(ctx, KeyGuestMode)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_Update(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	err := store.Update(ctx, KeyPurchaseHistory, func(current string, found bool) (string, error) {
		assert.False(t, found)
		assert.Empty(t, current)
		return "[1]", nil
	})
	require.NoError(t, err)

	err = store.Update(ctx, KeyPurchaseHistory, func(current string, found bool) (string, error) {
		assert.True(t, found)
		assert.Equal(t, "[1]", current)
		return "[2,1]", nil
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, KeyPurchaseHistory)
	require.NoError(t, err)
	assert.Equal(t, "[2,1]", got)
}

func TestSQLiteStorage_UpdateErrorKeepsValue(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyPurchaseHistory, "[1]"))

	boom := errors.New("boom")
	err := store.Update(ctx, KeyPurchaseHistory, func(string, bool) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, KeyPurchaseHistory)
	require.NoError(t, err)
	assert.Equal(t, "[1]", got)
}

func TestSQLiteStorage_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.Get(ctx, " ")
	assert.ErrorIs(t, err, ErrEmptyString)
	assert.ErrorIs(t, store.Set(ctx, "", "x"), ErrEmptyString)

	_, err = NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_PersistsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "device.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Set(ctx, KeyLastEthicalCheck, "1718445600000"))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	got, err := reopened.Get(ctx, KeyLastEthicalCheck)
	require.NoError(t, err)
	assert.Equal(t, "1718445600000", got)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}
