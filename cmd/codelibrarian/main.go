// Package main provides the entry point for the codelibrarian CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/codelibrarian/cmd/codelibrarian/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
