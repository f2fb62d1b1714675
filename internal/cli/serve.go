package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/efisher/whoopsync/internal/application"
)

// NewServeCommand creates the serve command, the long-running sync daemon.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run periodic syncs for every registered user",
		Long: `Start the sync daemon. Every registered user's sleep, recovery,
workout, and cycle data is synced immediately and then on the configured
interval (WHOOPSYNC_SYNC_INTERVAL, default 15m) until interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scheduler := application.NewScheduler(app.cfg.SyncInterval, app.users, app.collectorFor)
			if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			slog.Info("shutdown complete")
			return nil
		},
	}
}
