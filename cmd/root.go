// Package cmd implements the fintrack CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/auth"
	"github.com/theirongolddev/fintrack/internal/config"
	"github.com/theirongolddev/fintrack/internal/logger"
	"github.com/theirongolddev/fintrack/internal/notify"
	"github.com/theirongolddev/fintrack/internal/store"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

var (
	flagDataDir  string
	flagQuiet    bool
	flagLogLevel string
	flagCurrency string
)

var rootCmd = &cobra.Command{
	Use:           "fintrack",
	Short:         "Personal finance tracker",
	Long:          "Track expenses, received payments and monthly category budgets.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory holding the database, session and log")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagCurrency, "currency", "", "Override the currency label")
}

// loadConfig reads .env, then the config file, then applies flag overrides.
func loadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagCurrency != "" {
		cfg.General.Currency = flagCurrency
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	theme.SetActive(cfg.Appearance.Theme)
	return cfg, nil
}

// runtime holds the process-wide collaborators every command shares.
type runtime struct {
	cfg   config.Config
	log   *zap.SugaredLogger
	store *store.DocStore
	auth  *auth.Local
}

// openRuntime opens the store and restores the persisted session. Logs go
// to the log file unless logToStderr is set.
func openRuntime(ctx context.Context, logToStderr bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logPath := cfg.LogPath()
	if logToStderr {
		logPath = ""
	}
	log, err := logger.New(cfg.Log, logPath, logToStderr)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.StorePath(), store.Options{
		EnforceIndexes: cfg.Store.EnforceIndexes,
		Indexes:        cfg.Store.Indexes,
	})
	if err != nil {
		logger.Sync(log)
		return nil, fmt.Errorf("opening store: %w", err)
	}

	provider, err := auth.NewLocal(st.DB(), auth.Options{
		SessionPath:       cfg.SessionPath(),
		SessionTTL:        cfg.SessionTTL(),
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		Lockout:           cfg.Lockout(),
		Logger:            log,
	})
	if err != nil {
		_ = st.Close()
		logger.Sync(log)
		return nil, fmt.Errorf("starting identity provider: %w", err)
	}
	if _, err := provider.Restore(ctx); err != nil {
		log.Warnw("session restore failed", "error", err)
	}

	return &runtime{cfg: cfg, log: log, store: st, auth: provider}, nil
}

func (r *runtime) close() {
	if err := r.store.Close(); err != nil {
		r.log.Warnw("closing store", "error", err)
	}
	logger.Sync(r.log)
}

// headless builds an App for one-shot commands. Background work runs
// inline so every effect has finished when an operation returns. Success
// notices are printed; failures come back as errors.
func (r *runtime) headless(ctx context.Context) *app.App {
	a := app.New(ctx, app.Options{
		Store:  r.store,
		Auth:   r.auth,
		Logger: r.log,
		Notifier: notify.NotifierFunc(func(n notify.Notice) {
			if n.Severity == apperr.SeveritySuccess && !flagQuiet {
				fmt.Printf("  %s\n", n.Message)
			}
		}),
		Async: func(fn func()) { fn() },
	})
	a.Start()
	return a
}

// withApp runs fn against a headless App and tears everything down after.
func withApp(fn func(ctx context.Context, rt *runtime, a *app.App) error) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close()

	a := rt.headless(ctx)
	defer a.Close()
	return fn(ctx, rt, a)
}

// requireSignIn fails with a hint when no session is active.
func requireSignIn(rt *runtime) error {
	if rt.auth.Current().IsZero() {
		return errors.New("not signed in; run `fintrack login` first")
	}
	return nil
}
