package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/auth"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/store"
)

func newTestClient(t *testing.T) (App, *app.App, *Bridge) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "fintrack.db"), store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	provider, err := auth.NewLocal(st.DB(), auth.Options{
		SessionPath: filepath.Join(dir, "session.jwt"),
		BcryptCost:  bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("auth.NewLocal: %v", err)
	}

	ctx := context.Background()
	bridge := NewBridge()
	core := app.New(ctx, app.Options{
		Store:     st,
		Auth:      provider,
		Presenter: bridge,
		Notifier:  bridge,
		Async:     func(fn func()) { fn() },
	})
	core.Start()
	t.Cleanup(func() {
		core.Close()
		bridge.Close()
		_ = st.Close()
	})

	m := NewApp(ctx, core, bridge, Options{Currency: "MVR"})
	mm, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return mm.(App), core, bridge
}

// drain feeds every queued presenter message into the model.
func drain(m App, b *Bridge) App {
	for {
		msg, _ := b.pop()
		if msg == nil {
			return m
		}
		mm, _ := m.Update(msg)
		m = mm.(App)
	}
}

func press(m App, key rune) App {
	mm, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}})
	return mm.(App)
}

func TestClientSignInFlow(t *testing.T) {
	m, core, bridge := newTestClient(t)
	m = drain(m, bridge)

	if m.state.Screen != app.ScreenUnauthenticated {
		t.Fatalf("screen = %s, want unauthenticated", m.state.Screen)
	}
	if m.form == nil || m.formKind != formLogin {
		t.Fatalf("signed-out client should start on the sign-in form, got kind %d", m.formKind)
	}

	err := core.Signup(context.Background(), ledger.SignupInput{
		Name:     "Aisha",
		Email:    "aisha@example.com",
		Mobile:   "7771234",
		Password: "secret1",
		Confirm:  "secret1",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	m = drain(m, bridge)

	if m.state.Screen != app.ScreenAuthenticated || m.state.Tab != app.TabDashboard {
		t.Fatalf("state = %+v, want authenticated dashboard", m.state)
	}
	if m.form != nil {
		t.Fatal("sign-in form should close once signed in")
	}
	view := m.View()
	for _, want := range []string{"Dashboard", "Net Balance", "Budget vs Spent", "aisha@example.com"} {
		if !strings.Contains(view, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}

	m = press(m, '2')
	m = drain(m, bridge)
	if m.state.Tab != app.TabExpenses {
		t.Fatalf("tab = %s, want expenses", m.state.Tab)
	}
	if !strings.Contains(m.View(), "No expenses yet") {
		t.Error("empty expenses tab should say so")
	}

	if err := core.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	m = drain(m, bridge)
	if m.state.Screen != app.ScreenUnauthenticated {
		t.Fatalf("screen = %s after logout", m.state.Screen)
	}
	if m.expenses != nil || m.formKind != formLogin {
		t.Fatal("logout should clear data and reopen the sign-in form")
	}
}

func TestClientNoticeIsModal(t *testing.T) {
	m, _, bridge := newTestClient(t)
	m = drain(m, bridge)

	mm, _ := m.Update(noticeMsg{Title: "Validation Error", Message: "Please fill in all fields"})
	m = mm.(App)
	if !strings.Contains(m.View(), "Please fill in all fields") {
		t.Fatal("notice should be rendered")
	}

	m = press(m, 'x')
	if len(m.notices) != 1 {
		t.Fatal("other keys must not dismiss a notice")
	}
	mm, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = mm.(App)
	if len(m.notices) != 0 {
		t.Fatal("enter should dismiss the notice")
	}
}
