package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/model"
	"github.com/Aman-CERP/codelibrarian/internal/search"
)

func newLookupCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "lookup NAME",
		Short: "Look up a symbol by name and show its full details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, path, args[0])
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root")
	return cmd
}

func runLookup(cmd *cobra.Command, path, name string) error {
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
	results, err := searcher.LookupSymbol(cmd.Context(), name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintf(out, "Symbol '%s' not found.\n", name)
		return nil
	}

	for _, sym := range results {
		printSymbolDetail(out, sym)
	}
	return nil
}

func printSymbolDetail(out io.Writer, sym model.SymbolRecord) {
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Name:      %s\n", sym.Name)
	fmt.Fprintf(out, "Qualified: %s\n", sym.QualifiedName)
	fmt.Fprintf(out, "Kind:      %s\n", sym.Kind)
	fmt.Fprintf(out, "File:      %s:%d-%d\n", sym.RelativePath, sym.LineStart, sym.LineEnd)
	if sym.Signature != "" {
		fmt.Fprintf(out, "Signature: %s\n", sym.Signature)
	}
	if sym.ReturnType != "" {
		fmt.Fprintf(out, "Returns:   %s\n", sym.ReturnType)
	}
	if len(sym.Parameters) > 0 {
		fmt.Fprintln(out, "Parameters:")
		for _, p := range sym.Parameters {
			line := "  " + p.Name
			if p.Type != nil {
				line += ": " + *p.Type
			}
			if p.Default != nil {
				line += " = " + *p.Default
			}
			fmt.Fprintln(out, line)
		}
	}
	if len(sym.Decorators) > 0 {
		fmt.Fprintf(out, "Decorators: %s\n", strings.Join(sym.Decorators, ", "))
	}
	if sym.Docstring != "" {
		doc := sym.Docstring
		if len(doc) > 500 {
			doc = doc[:500]
		}
		fmt.Fprintf(out, "\nDocstring:\n  %s\n", doc)
	}
}
