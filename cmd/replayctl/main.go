// Package main is the entry point for the replayctl binary.
// It drives the replay facade from the command line: one-shot commands for
// tags, user data, and state transitions, and a long-running mode that serves
// facade metrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	defaultLogLevel = "info"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for replayctl
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "replayctl",
		Short: "Session replay facade CLI",
		Long: `Forward application lifecycle and identity events to the session replay SDK.

Every command initializes the facade from configuration first. A missing or
placeholder app id leaves the facade inert: commands log a warning and exit
successfully without reaching the SDK.

Example:
  REPLAY_APP_ID=abc123 replayctl transition checkout
  replayctl --config replay.yaml tag plan pro --type STR`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human-readable log output")
	rootCmd.PersistentFlags().StringVar(&opts.sdk, "sdk", "", "Replay SDK adapter (otel, log); overrides config")

	rootCmd.AddCommand(
		newStatusCmd(opts),
		newTagCmd(opts),
		newUserCmd(opts),
		newTransitionCmd(opts),
		newRunCmd(opts),
	)

	return rootCmd
}
