package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/index"
	"github.com/Aman-CERP/codelibrarian/internal/store"
)

func newIndexCmd() *cobra.Command {
	var (
		full    bool
		reembed bool
		files   []string
		path    string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the codebase",
		Long: `Discover and parse every eligible file under the configured root,
persist symbols and graph edges, resolve the call/inheritance/import
graphs, and embed any symbol still lacking a vector.

Exits 0 even if individual files errored (the errors are reported
textually); exits 1 on a fatal configuration or dimension-mismatch
error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// `--files a.go b.go` (the hook form) binds only a.go to the
			// flag; the remaining paths arrive as positional args.
			if len(files) > 0 {
				files = append(files, args...)
			}
			return runIndex(cmd, path, full, reembed, files)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Reindex all files, ignoring the content-hash cache")
	cmd.Flags().BoolVar(&reembed, "reembed", false, "Regenerate all embeddings")
	cmd.Flags().StringSliceVar(&files, "files", nil, "Index specific files only (e.g. from a git hook)")
	cmd.Flags().StringVar(&path, "path", "", "Project root (default: auto-detect)")

	return cmd
}

func runIndex(cmd *cobra.Command, path string, full, reembed bool, files []string) error {
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return err
	}

	lock := index.NewRunLock(cfg.ConfigDir())
	locked, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return fmt.Errorf("another index run is in progress for %s", cfg.ConfigDir())
	}
	defer func() { _ = lock.Unlock() }()

	embedder := newEmbedder(cfg, false)
	if embedder != nil {
		if ok, msg := embedder.CheckConnection(cmd.Context()); !ok {
			if strings.HasPrefix(msg, "dimension mismatch") {
				return fmt.Errorf("embeddings: %s", msg)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: embeddings disabled — %s\n", msg)
			embedder = nil
		}
	}

	st, err := store.Open(cfg.DBPath(), cfg.Embeddings.Dimensions, slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	var ixEmbedder index.Embedder
	if embedder != nil {
		ixEmbedder = embedder
	}
	ix := index.New(st, cfg, ixEmbedder, slog.Default())

	var stats index.IndexStats
	if len(files) > 0 {
		stats, err = ix.IndexFiles(cmd.Context(), files, full)
	} else {
		stats, err = ix.IndexRoot(cmd.Context(), full, reembed)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nIndex complete: %s\n", stats.String())
	if len(stats.Errors) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nErrors (%d):\n", len(stats.Errors))
		n := len(stats.Errors)
		if n > 10 {
			n = 10
		}
		for _, e := range stats.Errors[:n] {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
		}
	}
	return nil
}
