package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codelibrarian/internal/config"
	"github.com/Aman-CERP/codelibrarian/internal/store"
)

const fixtureSource = `package models

type Animal struct {
	Name string
}

func (a *Animal) Speak() string {
	return "..."
}

type Dog struct {
	Animal
}

func FindOldest(animals []*Animal) *Animal {
	return max(animals[0], animals[1])
}
`

func newTestIndexer(t *testing.T) (*Indexer, *config.Config, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "models.go"), []byte(fixtureSource), 0o644))

	cfg := config.Default()
	cfg.Index.Root = root
	cfg.Embeddings.Enabled = false
	cfg.SetConfigDir(filepath.Join(root, config.ConfigDirName))

	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"), cfg.Embeddings.Dimensions, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return New(st, cfg, nil, nil), cfg, root
}

func TestIndexRoot_SecondRunSkipsUnchangedFiles(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	ctx := context.Background()

	// Given: an initial indexing run
	first, err := ix.IndexRoot(ctx, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesIndexed)
	assert.Positive(t, first.SymbolsAdded)

	// When: the same root is indexed again with unchanged bytes
	second, err := ix.IndexRoot(ctx, false, false)
	require.NoError(t, err)

	// Then: the second run reports zero newly-indexed files and at least
	// one skip.
	assert.Equal(t, 0, second.FilesIndexed)
	assert.GreaterOrEqual(t, second.FilesSkipped, 1)
}

func TestIndexRoot_FullModeReindexesUnchangedFiles(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.IndexRoot(ctx, false, false)
	require.NoError(t, err)

	// When: --full is used on an unchanged tree
	second, err := ix.IndexRoot(ctx, true, false)
	require.NoError(t, err)

	// Then: the file is reparsed despite an unchanged hash.
	assert.Equal(t, 1, second.FilesIndexed)
	assert.Equal(t, 0, second.FilesSkipped)
}

func TestIndexRoot_NoiseFilteredCallNeverPersisted(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	ctx := context.Background()

	_, err := ix.IndexRoot(ctx, false, false)
	require.NoError(t, err)

	// Then: FindOldest's call to the builtin max() is not a recorded
	// callee (Go's "max" is in the noise filter).
	callees, err := ix.store.GetCallees(ctx, "models.FindOldest", 2)
	require.NoError(t, err)
	for _, c := range callees {
		assert.NotEqual(t, "max", c.Name)
	}
}

func TestIndexFiles_SkipsMissingPaths(t *testing.T) {
	ix, _, root := newTestIndexer(t)
	ctx := context.Background()

	stats, err := ix.IndexFiles(ctx, []string{
		filepath.Join(root, "models.go"),
		filepath.Join(root, "does-not-exist.go"),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesScanned)
	assert.Equal(t, 1, stats.FilesIndexed)
}

func TestDiscoverFiles_PrunesExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.go"), []byte("package pkg\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	cfg := config.Default()
	cfg.Index.Root = root

	files, err := discoverFiles(cfg, root)
	require.NoError(t, err)
	for _, f := range files {
		assert.NotContains(t, f, "node_modules")
	}
	assert.Len(t, files, 1)
}
