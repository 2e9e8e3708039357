package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var (
		path       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print file/symbol/embedding counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, path, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Project root")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, path string, jsonOutput bool) error {
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintf(out, "Database:      %s\n", cfg.DBPath())
	fmt.Fprintf(out, "Files indexed: %d\n", stats.Files)
	fmt.Fprintln(out, "Symbols:")
	fmt.Fprintf(out, "  %-12s %6d\n", "function", stats.Functions)
	fmt.Fprintf(out, "  %-12s %6d\n", "method", stats.Methods)
	fmt.Fprintf(out, "  %-12s %6d\n", "class", stats.Classes)
	fmt.Fprintf(out, "  %-12s %6d\n", "module", stats.Modules)
	fmt.Fprintf(out, "Embeddings:    %d\n", stats.Embeddings)
	return nil
}
