// Package cli wires the canvasctl commands together.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canvasctl",
	Short: "Canvas LMS sync tool",
	Long: `canvasctl mirrors course content (files, assignments, discussions,
pages, modules) from a Canvas LMS instance onto local storage with
resumable, idempotent, concurrent downloads and a persisted manifest.

Authentication uses a bearer token from the CANVAS_TOKEN environment
variable (a .env file is honored) or an interactive prompt.`,
	SilenceUsage: true,
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(gradesCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(configCmd)
}
