package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_NestedDirectoryCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[[[broken"), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("storage.backend", "sqlite"))
	require.NoError(t, store.Set("pipeline.accordion_threshold", 8))
	require.NoError(t, store.Set("learning.alpha", 0.25))
	require.NoError(t, store.Set("debug", true))
	require.NoError(t, store.Set("formats", []string{"json", "yaml"}))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("storage.backend"), "sqlite"},
		{"int", store.GetInt("pipeline.accordion_threshold"), 8},
		{"float", store.GetFloat("learning.alpha"), 0.25},
		{"int widened to float", store.GetFloat("pipeline.accordion_threshold"), 8.0},
		{"bool", store.GetBool("debug"), true},
		{"slice", store.GetStringSlice("formats"), []string{"json", "yaml"}},
		{"missing string", store.GetString("nope"), ""},
		{"missing int", store.GetInt("nope"), 0},
		{"missing float", store.GetFloat("nope"), 0.0},
		{"wrong type", store.GetInt("storage.backend"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_PersistsAsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("learning.alpha", 0.4))
	require.NoError(t, store.Set("learning.flag_min_usage", 7))
	require.NoError(t, store.Set("storage.backend", "memory"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[learning]")
	assert.NotContains(t, string(raw), `"learning.alpha"`)

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, reloaded.GetFloat("learning.alpha"), 1e-9)
	assert.Equal(t, 7, reloaded.GetInt("learning.flag_min_usage"))
	assert.Equal(t, "memory", reloaded.GetString("storage.backend"))
}

func TestConfigStore_LoadHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[learning]\nalpha = 1\n\n[storage]\nbackend = \"postgres\"\npostgres_dsn = \"postgres://localhost/folio\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, store.GetFloat("learning.alpha"), 1e-9)
	assert.Equal(t, "postgres", store.GetString("storage.backend"))
	assert.Equal(t, "postgres://localhost/folio", store.GetString("storage.postgres_dsn"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("pipeline.accordion_threshold", n)
			_ = store.GetInt("pipeline.accordion_threshold")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("pipeline.accordion_threshold")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]any
		want map[string]any
	}{
		{
			name: "flat keys stay at root",
			flat: map[string]any{"a": 1},
			want: map[string]any{"a": 1},
		},
		{
			name: "dotted keys become tables",
			flat: map[string]any{"a.b": 1, "a.c": 2, "d.e.f": "x"},
			want: map[string]any{
				"a": map[string]any{"b": 1, "c": 2},
				"d": map[string]any{"e": map[string]any{"f": "x"}},
			},
		},
		{
			name: "value shadows table prefix",
			flat: map[string]any{"a": 1, "a.b": 2},
			want: map[string]any{"a": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nestMap(tt.flat))
			if tt.name != "value shadows table prefix" {
				assert.Equal(t, tt.flat, flattenMap(nestMap(tt.flat), ""))
			}
		})
	}
}
