package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestStoreRoundTripAcrossReopen(t *testing.T) {
	store, path := testStore(t)

	require.NoError(t, store.Set("user.name", "Jack"))
	require.NoError(t, store.Set("user.age", 30))
	require.NoError(t, store.Set("user.height", 1.85))
	require.NoError(t, store.Set("user.subscribed", true))
	require.NoError(t, store.Set("user.nickname", nil))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	tests := []struct {
		key  string
		want any
	}{
		{"user.name", "Jack"},
		{"user.age", float64(30)},
		{"user.height", 1.85},
		{"user.subscribed", true},
		{"user.nickname", nil},
	}
	for _, tc := range tests {
		value, found, err := reopened.Get(tc.key)
		require.NoError(t, err, tc.key)
		assert.True(t, found, tc.key)
		assert.Equal(t, tc.want, value, tc.key)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := testStore(t)

	_, found, err := store.Get("no.such.key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreLastWriteWins(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Set("user.city", "Lisbon"))
	require.NoError(t, store.Set("user.city", "Porto"))

	value, found, err := store.Get("user.city")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Porto", value)
}

func TestStoreTypeChangesOnOverwrite(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Set("k", "5"))
	require.NoError(t, store.Set("k", 5))

	value, _, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, float64(5), value)
}

func TestStoreDelete(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Set("user.name", "Jack"))
	require.NoError(t, store.Delete("user.name"))

	_, found, err := store.Get("user.name")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error.
	assert.NoError(t, store.Delete("user.name"))
}

func TestStoreNamespace(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Set("user.name", "Jack"))
	require.NoError(t, store.Set("user.age", 30))
	require.NoError(t, store.Set("preferences.theme", "dark"))
	// A key that merely shares the prefix text is not in the namespace.
	require.NoError(t, store.Set("username", "other"))

	entries, err := store.Namespace("user")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"user.name": "Jack",
		"user.age":  float64(30),
	}, entries)
}

func TestStoreKeys(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Set("b.two", 2))
	require.NoError(t, store.Set("a.one", 1))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.one", "b.two"}, keys)
}

func TestStoreClear(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Set("user.name", "Jack"))
	require.NoError(t, store.Clear())

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStoreRejectsUnsupportedValues(t *testing.T) {
	store, _ := testStore(t)

	assert.Error(t, store.Set("bad", map[string]any{"nested": true}))
	assert.Error(t, store.Set("bad", []string{"a"}))
}

func TestStoreIntegralNumbersStayIntegral(t *testing.T) {
	store, _ := testStore(t)

	require.NoError(t, store.Set("count", 3))
	value, _, err := store.Get("count")
	require.NoError(t, err)
	assert.Equal(t, float64(3), value)
}
