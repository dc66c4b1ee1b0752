// Someip-server is the SOME/IP service discovery daemon.
//
// It joins the SD multicast group, tracks the availability of the
// service instances named in its configuration file, and optionally
// exposes that state over a local monitoring HTTP server.
//
// Usage:
//
//	someip-server serve --config /etc/someip/config.yaml
//
// See 'someip-server serve --help' for available options.
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
	Use:   "someip-server",
	Short: "SOME/IP Service Discovery Daemon",
	Long: `A daemon implementing the client side of SOME/IP Service Discovery.

It listens for multicast Offer/Stop announcements, tracks per-service
availability with TTL liveness timers, and exposes the resulting state
over a monitoring HTTP API, a websocket event stream, and Prometheus
metrics.

Note: For inspecting a running daemon, use the separate 'someip-cli'
utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("someip-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
