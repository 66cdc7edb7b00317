// notifierctl is a CLI for the activity notifier.
//
// Usage:
//
//	notifierctl track 0x1234... like --content-id 5 --channel email
//	notifierctl simulate -n 20
//	notifierctl simulate -n 20 --local --config config.yaml
//	notifierctl status 0x1234...
//	notifierctl reset 0x1234...
//	notifierctl users list
package main

import (
	"fmt"
	"os"
	"time"

	"activitynotifier/internal/version"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	outputFmt  string
	reqTimeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "notifierctl",
		Short: "Track activities and inspect rate limits on an activity notifier",
		Long: `notifierctl talks to a running activity notifier over its HTTP API.

The simulate command can also run the notification pipeline in-process
with --local, using the same configuration file as the server.`,
		Version:       version.GetInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("NOTIFIER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultURL, "Notifier base URL (env NOTIFIER_URL)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().DurationVar(&reqTimeout, "timeout", 30*time.Second, "Request timeout")

	// Add subcommands
	rootCmd.AddCommand(trackCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(usersCmd())

	return rootCmd
}
