package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage git hooks",
	}
	cmd.AddCommand(newHooksInstallCmd())
	return cmd
}

func newHooksInstallCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Write post-commit/post-merge hooks that reindex changed files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHooksInstall(cmd, path)
		},
	}
	cmd.Flags().StringVar(&path, "path", ".", "Project root (must contain .git/)")
	return cmd
}

const hookTemplate = `#!/bin/sh
# codelibrarian git hook: %s
# Incrementally reindex changed files after each commit/merge.

CHANGED=$(git diff --name-only HEAD~1 HEAD 2>/dev/null || git diff --name-only HEAD 2>/dev/null)
if [ -n "$CHANGED" ]; then
    codelibrarian index --files $CHANGED 2>/dev/null &
fi
`

func runHooksInstall(cmd *cobra.Command, path string) error {
	root, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	gitHooksDir := filepath.Join(root, ".git", "hooks")
	if _, err := os.Stat(gitHooksDir); err != nil {
		return fmt.Errorf("no .git/hooks/ found at %s: are you in a git repo?", root)
	}

	out := cmd.OutOrStdout()
	for _, name := range []string{"post-commit", "post-merge"} {
		dst := filepath.Join(gitHooksDir, name)
		content := fmt.Sprintf(hookTemplate, name)
		if err := os.WriteFile(dst, []byte(content), 0o755); err != nil {
			return err
		}
		fmt.Fprintf(out, "Installed %s\n", dst)
	}
	fmt.Fprintln(out, "Done. Hooks will trigger incremental reindexing on commit/merge.")
	return nil
}
