package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/efisher/whoopsync/internal/domain/model"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	UserID int64
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show token and sync state for a user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "local user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *StatusOptions) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	info, err := app.tokens.Info(ctx, opts.UserID)
	if err != nil {
		return err
	}
	if info == nil {
		fmt.Fprintln(out, "token: none (run `whoopsync auth`)")
	} else {
		state := "valid"
		switch {
		case info.IsExpired:
			state = "expired"
		case info.NeedsRefresh:
			state = "refresh due"
		}
		fmt.Fprintf(out, "token: %s, expires %s (scopes: %v)\n",
			state, info.ExpiresAt.Format(time.RFC3339), info.Scopes)
	}

	cursors, err := app.cursors.ListByUser(ctx, opts.UserID)
	if err != nil {
		return err
	}
	if len(cursors) == 0 {
		fmt.Fprintln(out, "sync:  never run")
		return nil
	}

	for _, c := range cursors {
		line := fmt.Sprintf("%-10s %-8s last sync %s", c.DataType, c.Status,
			c.LastSyncTime.Format(time.RFC3339))
		if c.LastRecordTime != nil {
			line += fmt.Sprintf(", records through %s", c.LastRecordTime.Format(time.RFC3339))
		}
		if c.Status == model.SyncStatusError && c.ErrorMessage != "" {
			line += fmt.Sprintf(" (%s)", c.ErrorMessage)
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
