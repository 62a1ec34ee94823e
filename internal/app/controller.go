// Package app holds the view controller and the application context that
// wires identity, store, listeners and presentation together.
package app

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/logger"
	"github.com/theirongolddev/fintrack/internal/model"
)

// Screen is the top-level view.
type Screen int

const (
	ScreenUnauthenticated Screen = iota
	ScreenAuthenticated
)

func (s Screen) String() string {
	if s == ScreenAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Tab is a section of the authenticated screen.
type Tab int

const (
	TabDashboard Tab = iota
	TabExpenses
	TabReceived
	TabBudget
	TabProfile
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabDashboard, TabExpenses, TabReceived, TabBudget, TabProfile}

var tabNames = map[Tab]string{
	TabDashboard: "dashboard",
	TabExpenses:  "expenses",
	TabReceived:  "received",
	TabBudget:    "budget",
	TabProfile:   "profile",
}

func (t Tab) String() string {
	if n, ok := tabNames[t]; ok {
		return n
	}
	return "unknown"
}

// Kind is the record kind shown on the tab, if any.
func (t Tab) Kind() (model.Kind, bool) {
	switch t {
	case TabExpenses:
		return model.KindExpense, true
	case TabReceived:
		return model.KindReceived, true
	case TabBudget:
		return model.KindBudget, true
	}
	return "", false
}

// ParseTab resolves a tab name.
func ParseTab(name string) (Tab, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range tabNames {
		if n == name {
			return t, nil
		}
	}
	return TabDashboard, apperr.WithMessage(apperr.ErrUnknownTab, "Unknown tab: "+name)
}

// State is what the controller shows.
type State struct {
	Screen Screen
	Tab    Tab
}

// Refresher performs the per-tab data refresh that follows navigation.
type Refresher interface {
	RefreshDashboard()
	Subscribed(kind model.Kind) bool
	LoadKind(kind model.Kind)
	ReloadProfile()
}

type nopRefresher struct{}

func (nopRefresher) RefreshDashboard()          {}
func (nopRefresher) Subscribed(model.Kind) bool { return true }
func (nopRefresher) LoadKind(model.Kind)        {}
func (nopRefresher) ReloadProfile()             {}

// Controller is the view state machine. It starts unauthenticated on the
// dashboard tab.
type Controller struct {
	log *zap.SugaredLogger

	mu        sync.Mutex
	state     State
	refresher Refresher
	onChange  func(State)
}

// NewController creates a controller. r may be nil and set later.
func NewController(r Refresher, log *zap.SugaredLogger) *Controller {
	if r == nil {
		r = nopRefresher{}
	}
	return &Controller{
		log:       logger.OrNop(log).With("component", "controller"),
		refresher: r,
		onChange:  func(State) {},
	}
}

// SetRefresher replaces the navigation side-effect target.
func (c *Controller) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r == nil {
		r = nopRefresher{}
	}
	c.refresher = r
}

// OnChange registers the callback run after every state change.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		fn = func(State) {}
	}
	c.onChange = fn
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DashboardVisible reports whether the dashboard is on screen.
func (c *Controller) DashboardVisible() bool {
	s := c.State()
	return s.Screen == ScreenAuthenticated && s.Tab == TabDashboard
}

// ShowUnauthenticated switches to the sign-in screen.
func (c *Controller) ShowUnauthenticated() {
	c.mu.Lock()
	changed := c.state.Screen != ScreenUnauthenticated
	c.state.Screen = ScreenUnauthenticated
	state, notify := c.state, c.onChange
	c.mu.Unlock()

	if changed {
		notify(state)
	}
}

// ShowAuthenticated switches to the application screen, always landing on
// the dashboard.
func (c *Controller) ShowAuthenticated() {
	c.mu.Lock()
	c.state.Screen = ScreenAuthenticated
	c.mu.Unlock()

	_ = c.Navigate(TabDashboard)
}

// NavigateTo navigates by tab name.
func (c *Controller) NavigateTo(name string) error {
	t, err := ParseTab(name)
	if err != nil {
		c.log.Debugw("ignoring navigation to unknown tab", "tab", name)
		return err
	}
	return c.Navigate(t)
}

// Navigate shows tab and triggers its refresh. Unknown tabs leave the state
// unchanged. Refreshes only run on the authenticated screen.
func (c *Controller) Navigate(tab Tab) error {
	if _, ok := tabNames[tab]; !ok {
		return apperr.ErrUnknownTab
	}

	c.mu.Lock()
	c.state.Tab = tab
	state, r, notify := c.state, c.refresher, c.onChange
	c.mu.Unlock()

	notify(state)
	if state.Screen != ScreenAuthenticated {
		return nil
	}

	switch tab {
	case TabDashboard:
		r.RefreshDashboard()
	case TabProfile:
		r.ReloadProfile()
	default:
		kind, _ := tab.Kind()
		if !r.Subscribed(kind) {
			r.LoadKind(kind)
		}
	}
	return nil
}
