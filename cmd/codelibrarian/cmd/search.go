package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/search"
)

func newSearchCmd() *cobra.Command {
	var (
		path         string
		limit        int
		semanticOnly bool
		textOnly     bool
	)

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the code index with a natural-language or keyword query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, path, args[0], limit, semanticOnly, textOnly)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Project root")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Max results")
	cmd.Flags().BoolVar(&semanticOnly, "semantic-only", false, "Vector search only")
	cmd.Flags().BoolVar(&textOnly, "text-only", false, "Full-text search only")
	return cmd
}

func runSearch(cmd *cobra.Command, path, query string, limit int, semanticOnly, textOnly bool) error {
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder := newEmbedder(cfg, textOnly)
	var searchEmbedder search.Embedder
	if embedder != nil {
		searchEmbedder = embedder
	}
	searcher := search.New(st, searchEmbedder)

	results, err := searcher.Search(cmd.Context(), query, search.Options{
		Limit: limit, SemanticOnly: semanticOnly, TextOnly: textOnly,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "%6s  %-8s  %-40s  Location\n", "Score", "Kind", "Symbol")
	fmt.Fprintln(out, "--------------------------------------------------------------------------------")
	for _, r := range results {
		sym := r.Symbol
		location := fmt.Sprintf("%s:%d", sym.RelativePath, sym.LineStart)
		fmt.Fprintf(out, "%6.3f  %-8s  %-40s  %s\n", r.Score, sym.Kind, sym.QualifiedName, location)
	}
	return nil
}
