// Package cmd provides the command-line interface of korsim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var rootCmd = &cobra.Command{
	Use:   "korsim",
	Short: "korsim simulates modules coordinating through decaying fields.",
	Long: `korsim simulates a cluster of modules that publish decaying ` +
		`load, thermal and power fields into a shared region, sample their ` +
		`neighbors, and schedule work against the resulting gradients.`,
	SilenceUsage: true,
}

// Execute runs the command line and exits. Functions registered with atexit,
// such as recorder flushes, run before the process ends.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
