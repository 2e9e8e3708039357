package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/index"
	"github.com/Aman-CERP/codelibrarian/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		path     string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the project root and reindex changed files as they settle",
		Long: `Watch is a convenience adapter, not part of the indexing core: it
wraps fsnotify around Indexer.IndexFiles so an index stays current
between commits without re-running 'index' by hand. Equivalent to
installing the git hooks, just triggered by file events instead of
commits. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, path, debounce)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root (default: auto-detect)")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "Coalescing window for rapid-fire file events")
	return cmd
}

func runWatch(cmd *cobra.Command, path string, debounce time.Duration) error {
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder := newEmbedder(cfg, false)
	var ixEmbedder index.Embedder
	if embedder != nil {
		ixEmbedder = embedder
	}
	ix := index.New(st, cfg, ixEmbedder, slog.Default())

	w := watch.New(cfg, ix, watch.Options{DebounceWindow: debounce}, slog.Default())
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", cfg.IndexRoot())
	return w.Run(cmd.Context())
}
