package main

import (
	"context"
	"fmt"
	"time"

	"github.com/focuspact/focuspact/internal/config"
	"github.com/focuspact/focuspact/internal/localdb"
	"github.com/focuspact/focuspact/internal/outbox"
	"github.com/focuspact/focuspact/internal/reconcile"
	"github.com/focuspact/focuspact/internal/remote"
	"github.com/focuspact/focuspact/internal/settingscache"
	"github.com/focuspact/focuspact/internal/shield"
	"github.com/spf13/cobra"
)

// newSyncCmd creates the "sync" subcommand: one reconciliation pass, run on
// app foreground or manually.
func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Drain the outbox and reconcile settings with the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.TraineeID == "" {
				return fmt.Errorf("sync: FOCUSPACT_UID is not set")
			}

			db, err := localdb.Open(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			defer db.Close()

			service := reconcile.New(
				cfg.TraineeID,
				outbox.New(db),
				settingscache.New(db),
				remote.New(cfg.APIBaseURL, cfg.SessionToken),
				shield.New(db),
			)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := service.Run(ctx); err != nil {
				return fmt.Errorf("sync: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Sync complete")
			return nil
		},
	}
}
