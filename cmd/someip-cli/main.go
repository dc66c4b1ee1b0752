// Someip-cli is an inspection utility for the SOME/IP discovery
// daemon.
//
// It can decode raw SOME/IP datagrams from hex dumps and watch a
// running daemon's discovery state live in the terminal.
//
// Usage:
//
//	someip-cli [command] [flags]
//
// See 'someip-cli --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openvcu/someip/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "someip-cli",
	Short: "SOME/IP Discovery Inspection Utility",
	Long: `A standalone utility for inspecting SOME/IP service discovery.

Provides a datagram decoder for protocol analysis and a live terminal
dashboard that follows a running daemon's discovery state.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("someip-cli %s (commit: %s)\n", version.Version, version.Commit)
	},
}
