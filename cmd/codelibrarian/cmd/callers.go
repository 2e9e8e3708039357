package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/model"
	"github.com/Aman-CERP/codelibrarian/internal/search"
)

func newCallersCmd() *cobra.Command {
	var (
		path  string
		depth int
	)
	cmd := &cobra.Command{
		Use:   "callers NAME",
		Short: "Find all functions/methods that call the named symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCallGraph(cmd, path, args[0], depth, true)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root")
	cmd.Flags().IntVarP(&depth, "depth", "d", 1, "Call-graph hops to traverse")
	return cmd
}

func newCalleesCmd() *cobra.Command {
	var (
		path  string
		depth int
	)
	cmd := &cobra.Command{
		Use:   "callees NAME",
		Short: "Find all functions/methods called by the named symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCallGraph(cmd, path, args[0], depth, false)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root")
	cmd.Flags().IntVarP(&depth, "depth", "d", 1, "Call-graph hops to traverse")
	return cmd
}

func runCallGraph(cmd *cobra.Command, path, name string, depth int, callers bool) error {
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	searcher := search.New(st, nil)
	var results []model.SymbolRecord
	if callers {
		results, err = searcher.GetCallers(cmd.Context(), name, depth)
	} else {
		results, err = searcher.GetCallees(cmd.Context(), name, depth)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		verb := "callers"
		if !callers {
			verb = "callees"
		}
		fmt.Fprintf(out, "No %s found for '%s'.\n", verb, name)
		return nil
	}
	printSymbolTable(out, results)
	return nil
}

func printSymbolTable(out io.Writer, results []model.SymbolRecord) {
	fmt.Fprintf(out, "%-10s  %-45s  Location\n", "Kind", "Symbol")
	fmt.Fprintln(out, "--------------------------------------------------------------------------------")
	for _, sym := range results {
		location := fmt.Sprintf("%s:%d", sym.RelativePath, sym.LineStart)
		fmt.Fprintf(out, "%-10s  %-45s  %s\n", sym.Kind, sym.QualifiedName, location)
	}
}
