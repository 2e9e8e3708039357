// Package config loads and validates a project's .codelibrarian/config.toml,
// layering hardcoded defaults, the project file, and environment variable
// overrides — the same three-tier precedence order the teacher's own
// config package applies to its YAML, adapted here to TOML per this
// project's file format.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	cerrors "github.com/Aman-CERP/codelibrarian/internal/errors"
)

// ConfigDirName is the per-project state directory: config file, database,
// and logs all live under it.
const ConfigDirName = ".codelibrarian"

// IndexConfig controls file discovery.
type IndexConfig struct {
	Root      string   `toml:"root"`
	Exclude   []string `toml:"exclude"`
	Languages []string `toml:"languages"`
}

// EmbeddingsConfig controls the remote embedding client.
type EmbeddingsConfig struct {
	Enabled    bool   `toml:"enabled"`
	APIURL     string `toml:"api_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	BatchSize  int    `toml:"batch_size"`
	MaxChars   int    `toml:"max_chars"`
}

// DatabaseConfig controls where the SQLite index file lives.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// Config is the fully resolved, validated configuration for one project.
type Config struct {
	Index      IndexConfig      `toml:"index"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Database   DatabaseConfig   `toml:"database"`

	// configDir is the absolute path to the .codelibrarian directory;
	// relative Index.Root and Database.Path are resolved against its
	// parent. Not part of the TOML schema.
	configDir string `toml:"-"`
}

var defaultExcludePatterns = []string{
	"node_modules/",
	".git/",
	"__pycache__/",
	"dist/",
	"build/",
	ConfigDirName + "/",
	"*.min.js",
	"*.min.css",
	"*.lock",
}

var defaultLanguages = []string{"go", "python", "typescript", "javascript", "rust", "java", "cpp"}

// Default returns a Config populated with the same baseline values the
// original Python fixture ships (embedding model, dimensions, excludes),
// with Go added as a first-class indexed language.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			Root:      ".",
			Exclude:   append([]string(nil), defaultExcludePatterns...),
			Languages: append([]string(nil), defaultLanguages...),
		},
		Embeddings: EmbeddingsConfig{
			Enabled:    true,
			APIURL:     "http://localhost:11434/v1/embeddings",
			Model:      "nomic-embed-text-v2-moe",
			Dimensions: 768,
			BatchSize:  32,
			MaxChars:   1600,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(ConfigDirName, "index.db"),
		},
	}
}

// Load resolves configuration for the project rooted at projectRoot: start
// from Default(), merge in .codelibrarian/config.toml if present, then apply
// CODELIBRARIAN_* environment overrides, then validate.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()
	cfg.configDir = filepath.Join(projectRoot, ConfigDirName)

	configFile := filepath.Join(cfg.configDir, "config.toml")
	if _, err := os.Stat(configFile); err == nil {
		var fileCfg Config
		md, err := toml.DecodeFile(configFile, &fileCfg)
		if err != nil {
			return nil, cerrors.ConfigError(fmt.Sprintf("parsing %s", configFile), err)
		}
		cfg.mergeFrom(&fileCfg)
		if md.IsDefined("embeddings", "enabled") {
			cfg.Embeddings.Enabled = fileCfg.Embeddings.Enabled
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, cerrors.ConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// FindProjectRoot walks up from start looking for an existing
// .codelibrarian directory or a .git directory, falling back to start
// itself if neither is found.
func FindProjectRoot(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	current := abs
	for {
		if dirExists(filepath.Join(current, ConfigDirName)) || dirExists(filepath.Join(current, ".git")) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		current = parent
	}
}

func (c *Config) mergeFrom(other *Config) {
	if other.Index.Root != "" {
		c.Index.Root = other.Index.Root
	}
	if len(other.Index.Exclude) > 0 {
		c.Index.Exclude = other.Index.Exclude
	}
	if len(other.Index.Languages) > 0 {
		c.Index.Languages = other.Index.Languages
	}
	if other.Embeddings.APIURL != "" {
		c.Embeddings.APIURL = other.Embeddings.APIURL
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.MaxChars != 0 {
		c.Embeddings.MaxChars = other.Embeddings.MaxChars
	}
	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}
}

// applyEnvOverrides lets CODELIBRARIAN_* variables win over both the
// defaults and the project's config.toml, matching the precedence order
// of the teacher's own env override pass.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODELIBRARIAN_EMBEDDINGS_API_URL"); v != "" {
		c.Embeddings.APIURL = v
	}
	if v := os.Getenv("CODELIBRARIAN_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("CODELIBRARIAN_EMBEDDINGS_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Embeddings.Dimensions = n
		}
	}
	if v := os.Getenv("CODELIBRARIAN_EMBEDDINGS_ENABLED"); v != "" {
		c.Embeddings.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CODELIBRARIAN_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
}

// Validate rejects a configuration that would produce a broken index:
// zero or negative dimensions while embeddings are enabled, an empty
// language set, an empty database path, a zero or negative batch size.
func (c *Config) Validate() error {
	if c.Embeddings.Enabled && c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}
	if len(c.Index.Languages) == 0 {
		return fmt.Errorf("index.languages must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Embeddings.BatchSize <= 0 {
		return fmt.Errorf("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}
	return nil
}

// IndexRoot resolves Index.Root against the project directory (the parent
// of .codelibrarian).
func (c *Config) IndexRoot() string {
	return c.resolve(c.Index.Root)
}

// DBPath resolves Database.Path against the project directory.
func (c *Config) DBPath() string {
	return c.resolve(c.Database.Path)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(c.configDir), p)
}

// ConfigDir returns the .codelibrarian directory this config was loaded
// for (or will be written to, for a not-yet-initialized project).
func (c *Config) ConfigDir() string {
	return c.configDir
}

// SetConfigDir is used by `codelibrarian init` to point a freshly
// constructed Default() config at the project being initialized.
func (c *Config) SetConfigDir(dir string) {
	c.configDir = dir
}

// IsLanguageEnabled reports whether lang is in the configured language
// set.
func (c *Config) IsLanguageEnabled(lang string) bool {
	for _, l := range c.Index.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// WriteDefault writes a fresh config.toml with this Config's values,
// creating .codelibrarian if needed. Used by `codelibrarian init`.
func (c *Config) WriteDefault() error {
	if err := os.MkdirAll(c.configDir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(c.configDir, "config.toml"))
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
