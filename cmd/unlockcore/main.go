// Unlockcore loads declarative unlock content and drives the unlock engine
// from an interactive console, a script, or a content check.
// Usage: unlockcore run [--plain] [--script <file>] [--trace] [--db <path>] <content_dir>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "unlockcore",
	Short:         "A deterministic, data-driven unlock engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(newRunCmd(), newCheckCmd(), newVersionCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
