package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/config"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}
	if !theme.Known(cfg.Appearance.Theme) {
		cfg.Appearance.Theme = theme.All[0].Name
	}
	watchMS := strconv.Itoa(cfg.Store.WatchIntervalMS)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fintrack!").
				Description(fmt.Sprintf("Settings are saved to %s.\nRun `fintrack setup` anytime to reconfigure.", config.ConfigPath())),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Currency label").
				Description("Shown in front of every amount").
				Value(&cfg.General.Currency).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("currency cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&cfg.Appearance.Theme),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Require declared indexes for ordered reads?").
				Description("When off, every ordered read is served directly. When on, undeclared orderings fall back to local sorting.").
				Value(&cfg.Store.EnforceIndexes),
			huh.NewInput().
				Title("Sync interval (ms)").
				Description("How often changes made by other fintrack processes are picked up").
				Value(&watchMS),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&cfg.Log.Level),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.General.Currency = strings.TrimSpace(cfg.General.Currency)
	ms, err := strconv.Atoi(strings.TrimSpace(watchMS))
	if err != nil {
		return fmt.Errorf("invalid sync interval %q", watchMS)
	}
	cfg.Store.WatchIntervalMS = ms
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println()
	return nil
}
