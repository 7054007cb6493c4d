package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"keywatch/internal/config"
	"keywatch/internal/journal"
	"keywatch/internal/logging"
	"keywatch/internal/procwatch"
	"keywatch/internal/retry"
	"keywatch/internal/sessionbus"
	"keywatch/internal/unlock"
	"keywatch/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the session lock state and unlock databases automatically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), ctx)
		},
	}
}

func runWatch(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	journalStore, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journalStore.Close()

	opener, err := ctx.newOpener()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	if closer, ok := opener.(io.Closer); ok {
		defer closer.Close()
	}

	// Settings are re-read on every cycle so edits take effect without a
	// restart; the process name and timings stay fixed for this run.
	load := func() (*config.Config, error) {
		fresh, _, _, err := config.Load(ctx.configPath)
		if err != nil {
			return nil, err
		}
		return fresh, nil
	}
	action := unlock.NewAction(logger, load, ctx.store, opener,
		time.Duration(cfg.Watch.UnlockTimeout)*time.Second)

	subscriber := sessionbus.NewSubscriber(logger, sessionbus.DefaultEndpoints(), retry.Policy{
		MaxAttempts: cfg.Watch.SubscribeAttempts,
		Delay:       time.Duration(cfg.Watch.SubscribeDelay) * time.Second,
	})
	processes := procwatch.NewWatcher(logger, cfg.Keywatch.ProcessName,
		time.Duration(cfg.Watch.PollInterval)*time.Second)
	engine := watcher.NewEngine(logger, action, journalStore)

	daemon, err := watcher.New(cfg, logger, subscriber, processes, engine)
	if err != nil {
		return err
	}

	if err := daemon.Run(signalCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}
