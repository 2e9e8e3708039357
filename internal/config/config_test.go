package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ProducesBaselineValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ".", cfg.Index.Root)
	assert.Contains(t, cfg.Index.Exclude, "node_modules/")
	assert.Contains(t, cfg.Index.Languages, "go")
	assert.True(t, cfg.Embeddings.Enabled)
	assert.Equal(t, 768, cfg.Embeddings.Dimensions)
	assert.Equal(t, 32, cfg.Embeddings.BatchSize)
	assert.Equal(t, filepath.Join(ConfigDirName, "index.db"), cfg.Database.Path)
}

func TestLoad_MergesProjectFileOverDefaults(t *testing.T) {
	// Given: a project with a config.toml that only overrides the model
	// and database path
	root := t.TempDir()
	configDir := filepath.Join(root, ConfigDirName)
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	toml := `
[embeddings]
model = "custom-embed"

[database]
path = "custom.db"
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(toml), 0o644))

	// When: the project is loaded
	cfg, err := Load(root)
	require.NoError(t, err)

	// Then: the overridden fields take the file's values, and everything
	// else still carries the Default() baseline.
	assert.Equal(t, "custom-embed", cfg.Embeddings.Model)
	assert.Equal(t, "custom.db", cfg.Database.Path)
	assert.Equal(t, 768, cfg.Embeddings.Dimensions)
	assert.Contains(t, cfg.Index.Languages, "python")
}

func TestLoad_NoConfigFileFallsBackToDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, Default().Embeddings.Model, cfg.Embeddings.Model)
}

func TestLoad_EnvOverridesBeatFileAndDefaults(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, ConfigDirName)
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	toml := `
[embeddings]
model = "from-file"
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(toml), 0o644))

	t.Setenv("CODELIBRARIAN_EMBEDDINGS_MODEL", "from-env")
	t.Setenv("CODELIBRARIAN_EMBEDDINGS_DIMENSIONS", "256")
	t.Setenv("CODELIBRARIAN_EMBEDDINGS_ENABLED", "false")
	t.Setenv("CODELIBRARIAN_DATABASE_PATH", "env.db")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Embeddings.Model)
	assert.Equal(t, 256, cfg.Embeddings.Dimensions)
	assert.False(t, cfg.Embeddings.Enabled)
	assert.Equal(t, "env.db", cfg.Database.Path)
}

func TestLoad_InvalidEnvDimensionsIsIgnored(t *testing.T) {
	root := t.TempDir()
	t.Setenv("CODELIBRARIAN_EMBEDDINGS_DIMENSIONS", "not-a-number")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, 768, cfg.Embeddings.Dimensions)
}

func TestValidate_RejectsNonPositiveDimensionsWhenEmbeddingsEnabled(t *testing.T) {
	cfg := Default()
	cfg.Embeddings.Enabled = true
	cfg.Embeddings.Dimensions = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestValidate_AllowsZeroDimensionsWhenEmbeddingsDisabled(t *testing.T) {
	cfg := Default()
	cfg.Embeddings.Enabled = false
	cfg.Embeddings.Dimensions = 0

	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsEmptyLanguages(t *testing.T) {
	cfg := Default()
	cfg.Index.Languages = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "languages")
}

func TestValidate_RejectsEmptyDatabasePath(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.path")
}

func TestValidate_RejectsNonPositiveBatchSize(t *testing.T) {
	cfg := Default()
	cfg.Embeddings.BatchSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
}

func TestFindProjectRoot_WalksUpToExistingCodelibrarianDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ConfigDirName), 0o755))
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)

	want, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, want, found)
}

func TestFindProjectRoot_WalksUpToGitDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)

	want, err := filepath.Abs(root)
	require.NoError(t, err)
	assert.Equal(t, want, found)
}

func TestFindProjectRoot_FallsBackToStartWhenNeitherExists(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "x", "y")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)

	want, err := filepath.Abs(nested)
	require.NoError(t, err)
	assert.Equal(t, want, found)
}

func TestIndexRoot_ResolvesRelativePathAgainstProjectDir(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.SetConfigDir(filepath.Join(root, ConfigDirName))
	cfg.Index.Root = "src"

	assert.Equal(t, filepath.Join(root, "src"), cfg.IndexRoot())
}

func TestIndexRoot_LeavesAbsolutePathUntouched(t *testing.T) {
	cfg := Default()
	cfg.SetConfigDir(filepath.Join(t.TempDir(), ConfigDirName))
	cfg.Index.Root = "/abs/path"

	assert.Equal(t, "/abs/path", cfg.IndexRoot())
}

func TestDBPath_ResolvesRelativePathAgainstProjectDir(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.SetConfigDir(filepath.Join(root, ConfigDirName))

	assert.Equal(t, filepath.Join(root, ConfigDirName, "index.db"), cfg.DBPath())
}

func TestIsLanguageEnabled(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsLanguageEnabled("go"))
	assert.False(t, cfg.IsLanguageEnabled("cobol"))
}

func TestWriteDefault_CreatesReadableConfigFile(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.SetConfigDir(filepath.Join(root, ConfigDirName))

	require.NoError(t, cfg.WriteDefault())

	reloaded, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, cfg.Embeddings.Model, reloaded.Embeddings.Model)
}
