package main

import (
	"fmt"

	"github.com/focuspact/focuspact/internal/config"
	"github.com/focuspact/focuspact/internal/unlock"
	"github.com/spf13/cobra"
)

// newUnlockLinkCmd creates the "unlock-link" subcommand. A coach runs it to
// mint a signed URL they can send to the trainee's device out-of-band.
func newUnlockLinkCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "unlock-link <trainee-id> <coach-id>",
		Short: "Mint a signed remote unlock URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if base == "" {
				base = cfg.APIBaseURL + "/api/unlock"
			}

			link, err := unlock.MakeURL(args[0], args[1], []byte(cfg.SharedSecret), base)
			if err != nil {
				return fmt.Errorf("unlock-link: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "unlock endpoint base URL (defaults to FOCUSPACT_API_URL + /api/unlock)")
	return cmd
}
