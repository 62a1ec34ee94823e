package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Currency:       %s\n", cfg.General.Currency)
	fmt.Printf("    Data directory: %s\n", cfg.DataDir())
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    Database:        %s\n", cfg.StorePath())
	fmt.Printf("    Enforce indexes: %v\n", cfg.Store.EnforceIndexes)
	if len(cfg.Store.Indexes) > 0 {
		fmt.Printf("    Indexes:         %s\n", strings.Join(cfg.Store.Indexes, ", "))
	} else {
		fmt.Println("    Indexes:         none (ordered reads fall back to local sorting)")
	}
	fmt.Printf("    Watch interval:  %s\n", cfg.WatchInterval())
	fmt.Println()

	fmt.Println("  [Auth]")
	fmt.Printf("    Session file: %s\n", cfg.SessionPath())
	fmt.Printf("    Session TTL:  %s\n", cfg.SessionTTL())
	fmt.Printf("    Lockout:      %d failed attempts, %s\n", cfg.Auth.MaxFailedAttempts, cfg.Lockout())
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Printf("    File:   %s\n", cfg.LogPath())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       http://%s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  Run `fintrack setup` to reconfigure.")
	return nil
}
