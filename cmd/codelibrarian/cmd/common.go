package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Aman-CERP/codelibrarian/internal/config"
	"github.com/Aman-CERP/codelibrarian/internal/embedclient"
	"github.com/Aman-CERP/codelibrarian/internal/store"
)

// loadProjectConfig resolves the project root (auto-detecting unless path
// is given) and loads its configuration.
func loadProjectConfig(path string) (*config.Config, error) {
	root := path
	if root == "" {
		found, err := config.FindProjectRoot(".")
		if err != nil {
			cwd, cwdErr := os.Getwd()
			if cwdErr != nil {
				return nil, cwdErr
			}
			found = cwd
		}
		root = found
	}
	return config.Load(root)
}

// openStore opens the project's database, failing loudly (per spec.md §7)
// if it does not exist.
func openStore(cfg *config.Config) (*store.Store, error) {
	if _, err := os.Stat(cfg.DBPath()); err != nil {
		return nil, fmt.Errorf("no index found at %s\nRun 'codelibrarian init && codelibrarian index' first", cfg.DBPath())
	}
	return store.Open(cfg.DBPath(), cfg.Embeddings.Dimensions, slog.Default())
}

// newEmbedder constructs an embedding client from config, or nil when
// embeddings are disabled or the caller requested text-only search.
func newEmbedder(cfg *config.Config, skip bool) *embedclient.Client {
	if skip || !cfg.Embeddings.Enabled {
		return nil
	}
	return embedclient.New(
		cfg.Embeddings.APIURL, cfg.Embeddings.Model, cfg.Embeddings.Dimensions,
		cfg.Embeddings.BatchSize, cfg.Embeddings.MaxChars, slog.Default(),
	)
}
