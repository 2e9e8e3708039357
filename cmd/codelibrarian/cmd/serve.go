package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/logging"
	"github.com/Aman-CERP/codelibrarian/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Launch the stdio RPC adapter",
		Long: `Start the MCP server on stdio, exposing search_code, lookup_symbol,
get_callers, get_callees, get_file_imports, list_symbols,
get_class_hierarchy, count_callers, and count_callees to MCP clients.

The stdio transport requires stdout to carry JSON-RPC exclusively, so all
logging in this mode goes to a file, never stdout/stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, path)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root")
	return cmd
}

func runServe(cmd *cobra.Command, path string) error {
	cleanup, err := logging.SetupMCPMode()
	if err != nil {
		return err
	}
	defer cleanup()

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

	srv, err := mcpserver.New(st, embedder, cfg)
	if err != nil {
		return err
	}

	slog.Info("starting MCP server", slog.String("root", cfg.IndexRoot()))
	return srv.ServeStdio(cmd.Context())
}
