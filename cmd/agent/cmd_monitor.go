package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/focuspact/focuspact/internal/config"
	"github.com/focuspact/focuspact/internal/localdb"
	"github.com/focuspact/focuspact/internal/monitor"
	"github.com/focuspact/focuspact/internal/outbox"
	"github.com/focuspact/focuspact/internal/publish"
	"github.com/focuspact/focuspact/internal/settingscache"
	"github.com/focuspact/focuspact/internal/shield"
	"github.com/focuspact/focuspact/internal/usagewatch"
	"github.com/spf13/cobra"
)

// newMonitorCmd creates the "monitor" subcommand: the long-running process
// that turns usage tracker callbacks into shield and status changes.
func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Watch usage tracker callbacks and enforce the daily budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.TraineeID == "" {
				return fmt.Errorf("monitor: FOCUSPACT_UID is not set")
			}

			db, err := localdb.Open(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			defer db.Close()

			machine := monitor.New(
				cfg.TraineeID,
				shield.New(db),
				outbox.New(db),
				publish.NewStatusPublisher(cfg.APIBaseURL+"/api/status", []byte(cfg.SharedSecret)),
				settingscache.NewSource(settingscache.New(db), cfg.TraineeID),
			)

			watcher, err := usagewatch.New(cfg.UsageEventPath)
			if err != nil {
				return fmt.Errorf("monitor: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
					log.Printf("usage watcher stopped: %v", err)
				}
			}()

			log.Printf("monitoring %s for %s", cfg.UsageEventPath, cfg.TraineeID)

			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events():
					if !ok {
						return nil
					}
					machine.Handle(event)
				}
			}
		},
	}
}
