package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/config"
	"github.com/Aman-CERP/codelibrarian/internal/store"
)

func newInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize .codelibrarian/ in the project root",
		Long: `Create the per-project .codelibrarian/ directory, write a default
config.toml, and create the database with schema.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, path)
		},
	}

	cmd.Flags().StringVar(&path, "path", ".", "Project root directory")
	return cmd
}

func runInit(cmd *cobra.Command, path string) error {
	root, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	cfg := config.Default()
	cfg.SetConfigDir(filepath.Join(root, config.ConfigDirName))

	if dirExists(cfg.ConfigDir()) {
		fmt.Fprintf(out, "Already initialised at %s\n", cfg.ConfigDir())
	} else {
		if err := os.MkdirAll(cfg.ConfigDir(), 0o755); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", cfg.ConfigDir())
	}

	configFile := filepath.Join(cfg.ConfigDir(), "config.toml")
	if _, err := os.Stat(configFile); err == nil {
		fmt.Fprintf(out, "Config already exists: %s\n", configFile)
	} else {
		if err := cfg.WriteDefault(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s\n", configFile)
	}

	st, err := store.Open(cfg.DBPath(), cfg.Embeddings.Dimensions, slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintf(out, "Initialised database at %s\n", cfg.DBPath())
	fmt.Fprintln(out, "Done. Run 'codelibrarian index' to index the codebase.")
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
