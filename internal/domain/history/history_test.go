package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yadavnikhil03/scrcpy-gui/internal/store"
)

func TestAddPlacesMostRecentFirst(t *testing.T) {
	h := New(store.NewMemory(), nil)

	require.NoError(t, h.Add("10.0.0.1:5555"))
	require.NoError(t, h.Add("10.0.0.2:5555"))
	require.NoError(t, h.Add("10.0.0.1:5555"))

	assert.Equal(t, []string{"10.0.0.1:5555", "10.0.0.2:5555"}, h.List())
	latest, ok := h.Latest()
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1:5555", latest)
}

func TestAddIgnoresNonEndpoints(t *testing.T) {
	kv := store.NewMemory()
	h := New(kv, nil)

	require.NoError(t, h.Add("R58M123ABC"))
	require.NoError(t, h.Add(""))

	assert.Empty(t, h.List())
	assert.Zero(t, kv.Writes(), "ignored adds must not persist")
}

func TestCapacityAndUniqueness(t *testing.T) {
	h := New(store.NewMemory(), nil)

	for i := 0; i < 25; i++ {
		require.NoError(t, h.Add(fmt.Sprintf("192.168.1.%d:5555", i%13)))

		list := h.List()
		assert.LessOrEqual(t, len(list), Capacity)
		seen := map[string]bool{}
		for _, e := range list {
			assert.False(t, seen[e], "duplicate %s", e)
			seen[e] = true
		}
		assert.Equal(t, fmt.Sprintf("192.168.1.%d:5555", i%13), list[0])
	}
	assert.Len(t, h.List(), Capacity)
}

func TestPersistAndLoad(t *testing.T) {
	kv := store.NewMemory()
	h := New(kv, nil)
	require.NoError(t, h.Add("10.0.0.1:5555"))
	require.NoError(t, h.Add("10.0.0.2:37000"))

	raw, ok := kv.Get(store.KeyHistory)
	require.True(t, ok)
	assert.JSONEq(t, `["10.0.0.2:37000","10.0.0.1:5555"]`, raw)

	reloaded := New(kv, nil)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, []string{"10.0.0.2:37000", "10.0.0.1:5555"}, reloaded.List())
}

func TestLoadNormalizesHandEditedState(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyHistory, `["a:1","usb-serial","a:1","b:2"]`))

	h := New(kv, nil)
	require.NoError(t, h.Load())
	assert.Equal(t, []string{"a:1", "b:2"}, h.List())
}

func TestLoadMalformed(t *testing.T) {
	kv := store.NewMemory()
	require.NoError(t, kv.Set(store.KeyHistory, `not json`))

	h := New(kv, nil)
	assert.Error(t, h.Load())
	assert.Empty(t, h.List())
}

func TestClear(t *testing.T) {
	kv := store.NewMemory()
	h := New(kv, nil)
	require.NoError(t, h.Add("10.0.0.1:5555"))
	require.NoError(t, h.Clear())

	assert.Empty(t, h.List())
	_, ok := kv.Get(store.KeyHistory)
	assert.False(t, ok)
}
