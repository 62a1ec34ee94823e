package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal client",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close()

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	bridge := tui.NewBridge()
	core := app.New(ctx, app.Options{
		Store:     rt.store,
		Auth:      rt.auth,
		Presenter: bridge,
		Notifier:  bridge,
		Logger:    rt.log,
	})
	core.Start()
	defer core.Close()

	// Commits from other processes (the CLI, a second client) reach the
	// subscriptions through the watcher.
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go func() {
		if err := rt.store.Watch(watchCtx, rt.cfg.WatchInterval()); err != nil && !errors.Is(err, context.Canceled) {
			rt.log.Warnw("store watcher stopped", "error", err)
		}
	}()

	if err := tui.Run(ctx, core, bridge, tui.Options{Currency: rt.cfg.General.Currency}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
