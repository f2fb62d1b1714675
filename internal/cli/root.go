// Package cli wires the whoopsync commands: the long-running sync daemon,
// one-shot syncs, the OAuth authorization flow, and status reporting.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the whoopsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "whoopsync",
		Short: "Sync Whoop wearable data into a local database",
		Long: `whoopsync pulls sleep, recovery, workout, and cycle data from the
Whoop v2 API into a local SQLite database, incrementally and within the
vendor's rate limit.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewAuthCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}
