package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"keywatch/internal/config"
	"keywatch/internal/journal"
	"keywatch/internal/logging"
	"keywatch/internal/unlock"
)

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Run one unlock cycle over all enabled databases now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			opener, err := ctx.newOpener()
			if err != nil {
				return fmt.Errorf("connect to session bus: %w", err)
			}
			if closer, ok := opener.(io.Closer); ok {
				defer closer.Close()
			}

			timeout := time.Duration(cfg.Watch.UnlockTimeout) * time.Second
			action := unlock.NewAction(logging.NewNop(), func() (*config.Config, error) {
				return cfg, nil
			}, ctx.store, opener, timeout)

			result := action.UnlockAll(cmd.Context())
			recordManualCycle(cmd, cfg, result)

			out := cmd.OutOrStdout()
			if result.Message != "" {
				fmt.Fprintln(out, result.Message)
			}
			fmt.Fprintf(out, "Unlocked %d of %d databases (%d failed)\n",
				result.Unlocked, result.Total, result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("%d database(s) failed to unlock", result.Failed)
			}
			return nil
		},
	}
}

// recordManualCycle writes the cycle to the journal. History is best effort
// for a manual run; a journal problem must not mask the unlock outcome.
func recordManualCycle(cmd *cobra.Command, cfg *config.Config, result unlock.Result) {
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: open journal: %v\n", err)
		return
	}
	defer store.Close()

	entry := journal.Entry{
		CycleID:  result.CycleID,
		Trigger:  journal.TriggerManual,
		Total:    result.Total,
		Unlocked: result.Unlocked,
		Failed:   result.Failed,
		Message:  result.Message,
	}
	if _, err := store.Record(cmd.Context(), entry); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: record unlock cycle: %v\n", err)
	}
}
