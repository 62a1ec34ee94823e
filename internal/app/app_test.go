package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/auth"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/notify"
	"github.com/theirongolddev/fintrack/internal/store"
)

type recorder struct {
	mu        sync.Mutex
	expenses  [][]model.ExpenseRecord
	received  int
	budgets   int
	dashboard []model.DashboardSnapshot
	profiles  []model.Profile
	states    []State
}

func (r *recorder) ShowExpenses(e []model.ExpenseRecord) {
	r.mu.Lock()
	r.expenses = append(r.expenses, e)
	r.mu.Unlock()
}

func (r *recorder) ShowReceived([]model.ReceivedRecord) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()
}

func (r *recorder) ShowBudget(*model.BudgetRecord) {
	r.mu.Lock()
	r.budgets++
	r.mu.Unlock()
}

func (r *recorder) ShowDashboard(s model.DashboardSnapshot) {
	r.mu.Lock()
	r.dashboard = append(r.dashboard, s)
	r.mu.Unlock()
}

func (r *recorder) ShowProfile(p model.Profile) {
	r.mu.Lock()
	r.profiles = append(r.profiles, p)
	r.mu.Unlock()
}

func (r *recorder) ShowState(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) lastExpenses() []model.ExpenseRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.expenses) == 0 {
		return nil
	}
	return r.expenses[len(r.expenses)-1]
}

// signOutProbe records how many live subscriptions remain when the
// provider is asked to sign out.
type signOutProbe struct {
	*auth.Local
	app       *App
	remaining int
	called    bool
}

func (p *signOutProbe) SignOut(ctx context.Context) error {
	p.called = true
	p.remaining = p.app.Listeners.ActiveCount()
	return p.Local.SignOut(ctx)
}

type fixture struct {
	app      *App
	provider *signOutProbe
	store    *store.DocStore
	view     *recorder
	notices  *notify.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "fintrack.db"), store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	local, err := auth.NewLocal(st.DB(), auth.Options{
		SessionPath: filepath.Join(dir, "session.jwt"),
		SessionTTL:  time.Hour,
		BcryptCost:  bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	probe := &signOutProbe{Local: local}
	view := &recorder{}
	notices := &notify.Recorder{}
	a := New(ctx, Options{
		Store:     st,
		Auth:      probe,
		Presenter: view,
		Notifier:  notices,
		Async:     func(fn func()) { fn() },
	})
	probe.app = a
	a.Start()
	t.Cleanup(a.Close)
	return fixture{app: a, provider: probe, store: st, view: view, notices: notices}
}

func signup() ledger.SignupInput {
	return ledger.SignupInput{
		Name:     "Aisha",
		Email:    "aisha@example.com",
		Mobile:   "7771234",
		Password: "secret1",
		Confirm:  "secret1",
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSignupOpensDashboardAndSubscribes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if got := f.app.Controller.State(); got.Screen != ScreenUnauthenticated {
		t.Fatalf("initial screen = %v", got.Screen)
	}
	if err := f.app.Signup(ctx, signup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if got := f.app.Controller.State(); got != (State{ScreenAuthenticated, TabDashboard}) {
		t.Fatalf("state = %+v, want authenticated dashboard", got)
	}
	if n := f.app.Listeners.ActiveCount(); n != len(model.SubscribedKinds) {
		t.Fatalf("active subscriptions = %d, want %d", n, len(model.SubscribedKinds))
	}

	p, err := f.app.Ledger.Profiles.Load(ctx)
	if err != nil {
		t.Fatalf("Profiles.Load: %v", err)
	}
	if p.Name != "Aisha" || p.Mobile != "7771234" || p.Email != "aisha@example.com" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	in := signup()
	in.Confirm = "different"

	err := f.app.Signup(context.Background(), in)
	if !apperr.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if !f.app.Auth.Current().IsZero() {
		t.Fatal("account created despite invalid form")
	}
	notices := f.notices.Notices()
	if len(notices) != 1 || notices[0].Message != "Passwords do not match" {
		t.Fatalf("notices = %+v", notices)
	}
}

func TestSavedExpenseArrivesThroughSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.app.Signup(ctx, signup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	_, err := f.app.SaveExpense(ctx, "", ledger.ExpenseInput{
		Date:       "2024-06-01",
		Merchant:   "Corner Shop",
		Purpose:    "Groceries",
		Amount:     "80",
		Category:   "grocery",
		PurchaseBy: "Aisha",
	})
	if err != nil {
		t.Fatalf("SaveExpense: %v", err)
	}

	waitFor(t, "expense push", func() bool { return len(f.view.lastExpenses()) == 1 })
	waitFor(t, "dashboard push", func() bool {
		f.view.mu.Lock()
		defer f.view.mu.Unlock()
		n := len(f.view.dashboard)
		return n > 0 && f.view.dashboard[n-1].TotalExpenses.IntPart() == 80
	})
}

func TestNavigateToSubscribedKindDoesNotLoad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.app.Signup(ctx, signup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if !f.app.Subscribed(model.KindExpense) {
		t.Fatal("expense kind should be live")
	}
	waitFor(t, "initial snapshot", func() bool {
		f.view.mu.Lock()
		defer f.view.mu.Unlock()
		return len(f.view.expenses) > 0
	})
	time.Sleep(20 * time.Millisecond)
	f.view.mu.Lock()
	before := len(f.view.expenses)
	f.view.mu.Unlock()

	if err := f.app.Controller.NavigateTo("expenses"); err != nil {
		t.Fatalf("NavigateTo: %v", err)
	}

	f.view.mu.Lock()
	after := len(f.view.expenses)
	f.view.mu.Unlock()
	if after != before {
		t.Fatalf("navigation presented %d extra expense lists, want 0", after-before)
	}
}

func TestLogoutStopsListenersBeforeSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.app.Signup(ctx, signup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	_ = f.app.Controller.NavigateTo("budget")

	if err := f.app.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if !f.provider.called {
		t.Fatal("provider SignOut not called")
	}
	if f.provider.remaining != 0 {
		t.Fatalf("%d subscriptions still live at sign-out", f.provider.remaining)
	}
	if got := f.app.Controller.State().Screen; got != ScreenUnauthenticated {
		t.Fatalf("screen = %v", got)
	}
	if !f.app.Listeners.Identity().IsZero() {
		t.Fatal("listener identity not cleared")
	}
	if n := f.store.ActiveSubscriptions(); n != 0 {
		t.Fatalf("store subscriptions = %d, want 0", n)
	}

	if err := f.app.Login(ctx, "aisha@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := f.app.Controller.State(); got != (State{ScreenAuthenticated, TabDashboard}) {
		t.Fatalf("state after login = %+v, want dashboard", got)
	}
}

func TestOperationsRequireSignIn(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.SaveExpense(context.Background(), "", ledger.ExpenseInput{
		Date:       "2024-06-01",
		Merchant:   "Corner Shop",
		Purpose:    "Groceries",
		Amount:     "10",
		Category:   "grocery",
		PurchaseBy: "Aisha",
	})
	if !apperr.Is(err, apperr.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want not authenticated", err)
	}
	if got := f.app.Controller.State().Screen; got != ScreenUnauthenticated {
		t.Fatalf("screen = %v", got)
	}
	if len(f.notices.Notices()) != 1 {
		t.Fatalf("notices = %+v", f.notices.Notices())
	}
}

func TestBudgetSaveNotifiesSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.app.Signup(ctx, signup()); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	err := f.app.SaveBudget(ctx, ledger.BudgetInput{model.Grocery: "100"})
	if err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}
	notices := f.notices.Notices()
	last := notices[len(notices)-1]
	if last.Severity != apperr.SeveritySuccess || last.Message != "Budget saved successfully" {
		t.Fatalf("last notice = %+v", last)
	}
	waitFor(t, "budget push", func() bool {
		d := f.app.Listeners.Data()
		return d.Budget != nil && d.Budget.Limit(model.Grocery).IntPart() == 100
	})
}
