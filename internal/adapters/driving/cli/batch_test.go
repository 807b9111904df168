package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPaths(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", bulletinJSON)
	b := writeFile(t, dir, "b.yaml", "pages: []")
	writeFile(t, dir, ".hidden.json", bulletinJSON)
	writeFile(t, dir, "notes.pdf", "%PDF")

	paths, err := expandPaths([]string{dir, a})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, paths)

	_, err = expandPaths([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestBatchCmd_ConvertsAll(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "one.json", bulletinJSON)
	writeFile(t, dir, "two.json", bulletinJSON)
	writeFile(t, dir, "three.json", bulletinJSON)

	out, err := runCommand(t, "batch", "--concurrency", "2", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 documents processed")
	assert.NotContains(t, out, "FAIL")

	// All three share one shape and reinforce one pattern.
	stats, err := learningService.ListPatterns(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].UsageCount)
}

func TestBatchCmd_ReportsFailures(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	writeFile(t, dir, "good.json", bulletinJSON)
	writeFile(t, dir, "undated.json", undatedJSON)
	writeFile(t, dir, "broken.json", "{")

	out, err := runCommand(t, "batch", "--json", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 documents failed")

	var items []batchItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 3)

	byName := make(map[string]batchItem)
	for _, it := range items {
		byName[filepath.Base(it.Path)] = it
	}
	assert.Empty(t, byName["good.json"].Error)
	assert.NotEmpty(t, byName["undated.json"].Error)
	require.NotNil(t, byName["undated.json"].Result, "partial result is kept")
	assert.NotEmpty(t, byName["broken.json"].Error)
	assert.Nil(t, byName["broken.json"].Result)
}

func TestBatchCmd_RejectsZeroConcurrency(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := runCommand(t, "batch", "--concurrency", "0", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}

func TestBatchCmd_EmptyDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := runCommand(t, "batch", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No documents found.")
}
