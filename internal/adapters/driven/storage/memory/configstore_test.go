package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("learning.alpha", 0.2))
	require.NoError(t, store.Set("learning.alpha", 0.3))

	val, ok := store.Get("learning.alpha")
	assert.True(t, ok)
	assert.Equal(t, 0.3, val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "sqlite"))
	require.NoError(t, store.Set("i", 5))
	require.NoError(t, store.Set("i64", int64(7)))
	require.NoError(t, store.Set("f", 0.4))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("list", []any{"a", 1, "b"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("s"), "sqlite"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 5},
		{"int from int64", store.GetInt("i64"), 7},
		{"int from float", store.GetInt("f"), 0},
		{"int missing", store.GetInt("missing"), 0},
		{"float", store.GetFloat("f"), 0.4},
		{"float widened from int", store.GetFloat("i"), 5.0},
		{"float wrong type", store.GetFloat("s"), 0.0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"slice skips non-strings", store.GetStringSlice("list"), []string{"a", "b"}},
		{"slice missing", store.GetStringSlice("missing"), []string(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("pipeline.accordion_threshold", i)
			_ = store.GetInt("pipeline.accordion_threshold")
		}()
	}
	wg.Wait()

	_, ok := store.Get("pipeline.accordion_threshold")
	assert.True(t, ok)
}
