// Package commands implements the alohactl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// httpClient talks to alohad's status/metrics HTTP server, initialized
	// in PersistentPreRunE.
	httpClient *http.Client

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the alohad status server address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for alohactl.
var rootCmd = &cobra.Command{
	Use:   "alohactl",
	Short: "CLI client for the alohad daemon",
	Long:  "alohactl talks to the alohad daemon's status/metrics HTTP endpoint to inspect neighbor queues and counters.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		httpClient = &http.Client{Timeout: 5 * time.Second}
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:9100",
		"alohad status server address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(queuesCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
