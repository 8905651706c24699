// Package cli implements the mockpit command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mockpit",
	Short: "mockpit is a mock HTTP/HTTPS server with live-swappable routes",
	Long: `mockpit serves user-defined mock endpoints over HTTP or HTTPS and exposes
a control API for managing them at runtime. Endpoint definitions can be
replaced while the server is running without dropping in-flight requests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
