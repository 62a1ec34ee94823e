package app

import (
	"sync"
	"testing"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/model"
)

type fakeRefresher struct {
	mu         sync.Mutex
	live       map[model.Kind]bool
	dashboards int
	profiles   int
	loads      []model.Kind
}

func (f *fakeRefresher) RefreshDashboard() {
	f.mu.Lock()
	f.dashboards++
	f.mu.Unlock()
}

func (f *fakeRefresher) Subscribed(kind model.Kind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[kind]
}

func (f *fakeRefresher) LoadKind(kind model.Kind) {
	f.mu.Lock()
	f.loads = append(f.loads, kind)
	f.mu.Unlock()
}

func (f *fakeRefresher) ReloadProfile() {
	f.mu.Lock()
	f.profiles++
	f.mu.Unlock()
}

func TestControllerStartsUnauthenticated(t *testing.T) {
	c := NewController(nil, nil)
	s := c.State()
	if s.Screen != ScreenUnauthenticated || s.Tab != TabDashboard {
		t.Fatalf("initial state = %+v", s)
	}
	if c.DashboardVisible() {
		t.Error("dashboard visible before sign-in")
	}
}

func TestShowAuthenticatedLandsOnDashboard(t *testing.T) {
	r := &fakeRefresher{live: map[model.Kind]bool{}}
	c := NewController(r, nil)

	c.ShowAuthenticated()
	if err := c.NavigateTo("budget"); err != nil {
		t.Fatalf("NavigateTo(budget): %v", err)
	}
	c.ShowUnauthenticated()
	c.ShowAuthenticated()

	s := c.State()
	if s.Screen != ScreenAuthenticated || s.Tab != TabDashboard {
		t.Fatalf("state after re-login = %+v, want authenticated dashboard", s)
	}
	if !c.DashboardVisible() {
		t.Error("dashboard should be visible")
	}
	if r.dashboards != 2 {
		t.Errorf("dashboard refreshes = %d, want 2", r.dashboards)
	}
}

func TestNavigateSkipsLoadWhenSubscribed(t *testing.T) {
	r := &fakeRefresher{live: map[model.Kind]bool{model.KindExpense: true}}
	c := NewController(r, nil)
	c.ShowAuthenticated()

	if err := c.NavigateTo("expenses"); err != nil {
		t.Fatalf("NavigateTo: %v", err)
	}
	if len(r.loads) != 0 {
		t.Fatalf("loads = %v, want none while subscribed", r.loads)
	}

	if err := c.NavigateTo("received"); err != nil {
		t.Fatalf("NavigateTo: %v", err)
	}
	if len(r.loads) != 1 || r.loads[0] != model.KindReceived {
		t.Fatalf("loads = %v, want [received]", r.loads)
	}
}

func TestNavigateProfileReloads(t *testing.T) {
	r := &fakeRefresher{}
	c := NewController(r, nil)
	c.ShowAuthenticated()
	if err := c.Navigate(TabProfile); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if r.profiles != 1 {
		t.Errorf("profile reloads = %d, want 1", r.profiles)
	}
}

func TestNavigateUnknownTabKeepsState(t *testing.T) {
	r := &fakeRefresher{}
	c := NewController(r, nil)
	c.ShowAuthenticated()
	_ = c.NavigateTo("received")
	before := c.State()

	err := c.NavigateTo("reports")
	if !apperr.Is(err, apperr.ErrUnknownTab) {
		t.Fatalf("err = %v, want ErrUnknownTab", err)
	}
	if err := c.Navigate(Tab(42)); !apperr.Is(err, apperr.ErrUnknownTab) {
		t.Fatalf("Navigate(42) err = %v", err)
	}
	if got := c.State(); got != before {
		t.Fatalf("state changed to %+v, want %+v", got, before)
	}
}

func TestNavigateWhileSignedOutHasNoSideEffects(t *testing.T) {
	r := &fakeRefresher{}
	c := NewController(r, nil)
	if err := c.NavigateTo("expenses"); err != nil {
		t.Fatalf("NavigateTo: %v", err)
	}
	if r.dashboards != 0 || len(r.loads) != 0 || r.profiles != 0 {
		t.Fatalf("side effects while signed out: %+v", r)
	}
}

func TestOnChangeSeesEveryTransition(t *testing.T) {
	c := NewController(&fakeRefresher{}, nil)
	var got []State
	c.OnChange(func(s State) { got = append(got, s) })

	c.ShowAuthenticated()
	_ = c.NavigateTo("profile")
	c.ShowUnauthenticated()
	c.ShowUnauthenticated()

	want := []State{
		{ScreenAuthenticated, TabDashboard},
		{ScreenAuthenticated, TabProfile},
		{ScreenUnauthenticated, TabProfile},
	}
	if len(got) != len(want) {
		t.Fatalf("transitions = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseTab(t *testing.T) {
	tests := []struct {
		in   string
		want Tab
		ok   bool
	}{
		{"dashboard", TabDashboard, true},
		{" Expenses ", TabExpenses, true},
		{"received", TabReceived, true},
		{"BUDGET", TabBudget, true},
		{"profile", TabProfile, true},
		{"settings", TabDashboard, false},
		{"", TabDashboard, false},
	}
	for _, tt := range tests {
		got, err := ParseTab(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseTab(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseTab(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
