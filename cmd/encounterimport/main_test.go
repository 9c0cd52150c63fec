package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/zumbor/internal/db"
	"github.com/udisondev/zumbor/internal/save"
)

func sampleFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "..", "data", "import", "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	return files
}

func TestImportAll_SampleData(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	pool := save.NewEncounters(store)

	require.NoError(t, importAll(ctx, pool, sampleFiles(t)))

	keys, err := pool.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"zumbor/encounters/v2/cave.json",
		"zumbor/encounters/v2/old-mill.json",
	}, keys)

	mill, err := pool.Load(ctx, "zumbor/encounters/v2/old-mill.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rest", "Search"}, mill.Labels())
}

func TestImportAll_ReportsBadFiles(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()

	bad := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"title":"half"}`), 0o644))
	missing := filepath.Join(t.TempDir(), "gone.json")

	files := append(sampleFiles(t), bad, missing)
	err := importAll(ctx, save.NewEncounters(store), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 4 files failed")
	assert.Equal(t, 2, store.Len(), "good files are still imported")
}
