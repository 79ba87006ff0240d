// Package cli implements the preprocessing orchestrator's command-line
// interface using Cobra: serve, migrate, status, and reset.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Preprocessing orchestrator — durable per-batch file processing",
	Long: `orchestrator sequences a batch of uploaded files through a fixed
chain of processing phases, spawning ephemeral remote workers for each
file and reconciling their callbacks, with durable state that survives
process restarts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
