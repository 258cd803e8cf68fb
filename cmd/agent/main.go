// Package main is the entry point for the focuspact device agent.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root agent command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "focuspact-agent",
		Short:         "FocusPact device-side agent",
		Long:          "focuspact-agent runs the device side of FocusPact.\nIt monitors usage tracker callbacks, reconciles the outbox, and mints unlock links.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newMonitorCmd(),
		newSyncCmd(),
		newUnlockLinkCmd(),
	)

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
