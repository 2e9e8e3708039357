package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/diagram"
)

func newDiagramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Render Mermaid diagrams from the index",
	}
	cmd.AddCommand(newDiagramClassCmd())
	cmd.AddCommand(newDiagramCallsCmd())
	cmd.AddCommand(newDiagramImportsCmd())
	return cmd
}

func newDiagramClassCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "class NAME",
		Short: "Render a class's inheritance hierarchy as a Mermaid classDiagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig(path)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out, err := diagram.ClassDiagram(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}
			if out == "" {
				return fmt.Errorf("class '%s' not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root")
	return cmd
}

func newDiagramCallsCmd() *cobra.Command {
	var (
		path      string
		depth     int
		direction string
	)
	cmd := &cobra.Command{
		Use:   "calls NAME",
		Short: "Render a call graph as a Mermaid flowchart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig(path)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out, err := diagram.CallGraph(cmd.Context(), st, args[0], depth, direction)
			if err != nil {
				return err
			}
			if out == "" {
				return fmt.Errorf("no call edges found for '%s'", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root")
	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "Call-graph hops to traverse")
	cmd.Flags().StringVar(&direction, "direction", "callees", "Direction: callees or callers")
	return cmd
}

func newDiagramImportsCmd() *cobra.Command {
	var (
		path string
		file string
	)
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "Render the module import graph as a Mermaid flowchart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadProjectConfig(path)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out, err := diagram.ImportGraph(cmd.Context(), st, file)
			if err != nil {
				return err
			}
			if out == "" {
				return fmt.Errorf("no import edges found")
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Project root")
	cmd.Flags().StringVar(&file, "file", "", "Restrict to edges touching this file")
	return cmd
}
