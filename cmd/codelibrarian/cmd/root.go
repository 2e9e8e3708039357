// Package cmd provides the CLI commands for codelibrarian.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/codelibrarian/internal/logging"
	"github.com/Aman-CERP/codelibrarian/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the codelibrarian CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codelibrarian",
		Short: "Self-maintaining code index for LLMs and humans",
		Long: `codelibrarian builds and queries a per-repository code index:
structural, textual, and semantic lookups over functions, methods,
classes, and the call/inheritance/import graphs between them.

Run 'codelibrarian init' in a project root to get started, then
'codelibrarian index' to build the index.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("codelibrarian version {{.Version}}\n")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.codelibrarian/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newLookupCmd())
	cmd.AddCommand(newCallersCmd())
	cmd.AddCommand(newCalleesCmd())
	cmd.AddCommand(newDiagramCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHooksCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}
