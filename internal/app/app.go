package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/auth"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/listener"
	"github.com/theirongolddev/fintrack/internal/logger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/notify"
	"github.com/theirongolddev/fintrack/internal/store"
)

// Presenter is everything the application shows.
type Presenter interface {
	listener.Presenter
	ShowProfile(model.Profile)
	ShowState(State)
}

// NopPresenter ignores everything.
type NopPresenter struct{ listener.NopPresenter }

func (NopPresenter) ShowProfile(model.Profile) {}
func (NopPresenter) ShowState(State)           {}

// Options configures an App.
type Options struct {
	Store     store.Store
	Auth      auth.Provider
	Presenter Presenter
	Notifier  notify.Notifier
	Logger    *zap.SugaredLogger
	// Async runs background work such as navigation refreshes. Defaults
	// to a new goroutine per call.
	Async func(func())
}

// App is the application context. It owns the controller, the listener
// manager and the record services for one process.
type App struct {
	Auth       auth.Provider
	Controller *Controller
	Listeners  *listener.Manager
	Ledger     *ledger.Services

	ctx       context.Context
	presenter Presenter
	notifier  notify.Notifier
	log       *zap.SugaredLogger
	async     func(func())

	mu       sync.Mutex
	identity model.Identity
	cancel   func()
}

// New wires an App. ctx scopes every subscription it opens.
func New(ctx context.Context, opts Options) *App {
	a := &App{
		Auth:      opts.Auth,
		ctx:       ctx,
		presenter: opts.Presenter,
		notifier:  opts.Notifier,
		log:       logger.OrNop(opts.Logger).With("component", "app"),
		async:     opts.Async,
	}
	if a.presenter == nil {
		a.presenter = NopPresenter{}
	}
	if a.notifier == nil {
		a.notifier = notify.Discard
	}
	if a.async == nil {
		a.async = func(fn func()) { go fn() }
	}

	a.Controller = NewController(a, opts.Logger)
	a.Controller.OnChange(a.presenter.ShowState)
	a.Listeners = listener.New(listener.Options{
		Store:            opts.Store,
		Presenter:        a.presenter,
		DashboardVisible: a.Controller.DashboardVisible,
		Notifier:         a.notifier,
		Logger:           opts.Logger,
	})
	a.Ledger = ledger.New(ledger.Deps{
		Store:    opts.Store,
		Session:  opts.Auth,
		Accounts: opts.Auth,
		Logger:   opts.Logger,
	})
	return a
}

// Start follows the identity provider and applies the current identity.
func (a *App) Start() {
	cancel := a.Auth.OnIdentityChange(a.handleIdentity)
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	a.handleIdentity(a.Auth.Current())
}

// Close stops following identity changes and drops every subscription.
func (a *App) Close() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.Listeners.StopAll()
}

func (a *App) handleIdentity(id model.Identity) {
	a.mu.Lock()
	prev := a.identity
	a.identity = id
	a.mu.Unlock()

	if id.IsZero() {
		a.log.Infow("signed out")
		a.Listeners.StopAll()
		a.Controller.ShowUnauthenticated()
		return
	}
	if prev.UID == id.UID {
		// Same account, new email.
		if a.Controller.State().Tab == TabProfile {
			a.ReloadProfile()
		}
		return
	}

	a.log.Infow("signed in", "uid", id.UID)
	if err := a.Ledger.Profiles.EnsureProfile(a.ctx); err != nil {
		a.log.Warnw("profile bootstrap failed", "uid", id.UID, "error", err)
	}
	if err := a.Listeners.StartAll(a.ctx, id); err != nil {
		a.fail(err)
		return
	}
	a.Controller.ShowAuthenticated()
}

// fail reports err to the user. An unauthenticated failure also returns
// the view to the sign-in screen.
func (a *App) fail(err error) {
	if apperr.Is(err, apperr.ErrNotAuthenticated) {
		a.Controller.ShowUnauthenticated()
	}
	a.notifier.Notify(notify.FromError(err))
}

func (a *App) report(err error) error {
	if err != nil {
		a.fail(err)
	}
	return err
}

// RefreshDashboard reads any kind without a live subscription and then
// presents the dashboard.
func (a *App) RefreshDashboard() {
	a.async(func() {
		for _, kind := range model.SubscribedKinds {
			if a.Listeners.Active(kind) {
				continue
			}
			if err := a.Listeners.Load(a.ctx, kind); err != nil {
				a.fail(err)
				return
			}
		}
		a.presenter.ShowDashboard(a.Listeners.Dashboard())
	})
}

// Subscribed reports whether kind is fed by a live subscription.
func (a *App) Subscribed(kind model.Kind) bool {
	return a.Listeners.Active(kind)
}

// LoadKind reads kind once in the background.
func (a *App) LoadKind(kind model.Kind) {
	a.async(func() {
		if err := a.Listeners.Load(a.ctx, kind); err != nil {
			a.fail(err)
		}
	})
}

// ReloadProfile reads the profile in the background and presents it.
func (a *App) ReloadProfile() {
	a.async(func() {
		p, err := a.Ledger.Profiles.Load(a.ctx)
		if err != nil {
			a.fail(err)
			return
		}
		a.presenter.ShowProfile(p)
	})
}

// Login signs in. Everything that follows is driven by the identity change.
func (a *App) Login(ctx context.Context, email, password string) error {
	_, err := a.Auth.SignIn(ctx, email, password)
	return a.report(err)
}

// Signup creates an account and stores the full profile.
func (a *App) Signup(ctx context.Context, in ledger.SignupInput) error {
	if err := a.Ledger.Profiles.ValidateSignup(&in); err != nil {
		return a.report(err)
	}
	if _, err := a.Auth.SignUp(ctx, in.Email, in.Password, in.Name); err != nil {
		return a.report(err)
	}
	return a.report(a.Ledger.Profiles.Update(ctx, ledger.ProfileInput{
		Name:   in.Name,
		Email:  in.Email,
		Mobile: in.Mobile,
	}))
}

// Logout closes every subscription before the identity is cleared.
func (a *App) Logout(ctx context.Context) error {
	a.Listeners.StopAll()
	return a.report(a.Auth.SignOut(ctx))
}

// SaveExpense creates (empty id) or updates an expense.
func (a *App) SaveExpense(ctx context.Context, id string, in ledger.ExpenseInput) (string, error) {
	docID, err := a.Ledger.Expenses.Save(ctx, id, in)
	if err != nil {
		return "", a.report(err)
	}
	a.afterWrite(model.KindExpense)
	return docID, nil
}

// EditExpense reads one expense for editing.
func (a *App) EditExpense(ctx context.Context, id string) (model.ExpenseRecord, error) {
	e, err := a.Ledger.Expenses.Get(ctx, id)
	return e, a.report(err)
}

// DeleteExpense removes an expense.
func (a *App) DeleteExpense(ctx context.Context, id string) error {
	if err := a.Ledger.Expenses.Delete(ctx, id); err != nil {
		return a.report(err)
	}
	a.afterWrite(model.KindExpense)
	return nil
}

// SaveReceived creates (empty id) or updates a received record.
func (a *App) SaveReceived(ctx context.Context, id string, in ledger.ReceivedInput) (string, error) {
	docID, err := a.Ledger.Received.Save(ctx, id, in)
	if err != nil {
		return "", a.report(err)
	}
	a.afterWrite(model.KindReceived)
	return docID, nil
}

// EditReceived reads one received record for editing.
func (a *App) EditReceived(ctx context.Context, id string) (model.ReceivedRecord, error) {
	r, err := a.Ledger.Received.Get(ctx, id)
	return r, a.report(err)
}

// DeleteReceived removes a received record.
func (a *App) DeleteReceived(ctx context.Context, id string) error {
	if err := a.Ledger.Received.Delete(ctx, id); err != nil {
		return a.report(err)
	}
	a.afterWrite(model.KindReceived)
	return nil
}

// SaveBudget merges the category limits into the budget.
func (a *App) SaveBudget(ctx context.Context, in ledger.BudgetInput) error {
	if err := a.Ledger.Budgets.Save(ctx, in); err != nil {
		return a.report(err)
	}
	a.notifier.Notify(notify.Success("Budget saved successfully"))
	a.afterWrite(model.KindBudget)
	return nil
}

// UpdateProfile saves the profile.
func (a *App) UpdateProfile(ctx context.Context, in ledger.ProfileInput) error {
	if err := a.Ledger.Profiles.Update(ctx, in); err != nil {
		return a.report(err)
	}
	a.notifier.Notify(notify.Success("Profile updated successfully"))
	a.ReloadProfile()
	return nil
}

// ChangePassword changes the sign-in password.
func (a *App) ChangePassword(ctx context.Context, in ledger.PasswordInput) error {
	if err := a.Ledger.Profiles.ChangePassword(ctx, in); err != nil {
		return a.report(err)
	}
	a.notifier.Notify(notify.Success("Password changed successfully"))
	return nil
}

// afterWrite re-reads kind when no live subscription will deliver the
// change.
func (a *App) afterWrite(kind model.Kind) {
	if a.Listeners.Active(kind) {
		return
	}
	a.LoadKind(kind)
	if a.Controller.DashboardVisible() {
		a.RefreshDashboard()
	}
}
