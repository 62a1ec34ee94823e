// Package tui provides the interactive Bubble Tea client for fintrack.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/notify"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

// Options configures the client.
type Options struct {
	Currency string
	Now      func() time.Time
}

// confirmState is a pending yes/no question.
type confirmState struct {
	prompt string
	action func() tea.Cmd
}

// App is the root Bubble Tea model.
type App struct {
	core     *app.App
	bridge   *Bridge
	ctx      context.Context
	currency string
	now      func() time.Time

	// Data, as last presented
	state    app.State
	expenses []model.ExpenseRecord
	received []model.ReceivedRecord
	budget   *model.BudgetRecord
	dash     model.DashboardSnapshot
	profile  model.Profile

	// UI state
	width     int
	height    int
	showHelp  bool
	notices   []notify.Notice
	confirm   *confirmState
	expCursor int
	recCursor int

	form     *huh.Form
	formKind formKind
	vals     *formValues
	initCmd  tea.Cmd
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
	listOverhead     = 4 // card border, title and header row
)

// NewApp creates the root model. bridge must be the presenter and notifier
// core was built with.
func NewApp(ctx context.Context, core *app.App, bridge *Bridge, opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := App{
		core:     core,
		bridge:   bridge,
		ctx:      ctx,
		currency: opts.Currency,
		now:      opts.Now,
		state:    core.Controller.State(),
	}
	if a.state.Screen != app.ScreenAuthenticated {
		a.initCmd = a.openForm(formLogin, &formValues{})
	}
	return a
}

// Run starts the client and blocks until it exits.
func Run(ctx context.Context, core *app.App, bridge *Bridge, opts Options) error {
	p := tea.NewProgram(NewApp(ctx, core, bridge, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	bridge.Close()
	return err
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.bridge.Next(), a.initCmd)
}

func (a App) today() string { return a.now().Format("2006-01-02") }

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width-8, 60))
		}
		return a, nil

	case expensesMsg:
		a.expenses = msg
		a.expCursor = clampCursor(a.expCursor, len(a.expenses))
		return a, a.bridge.Next()

	case receivedMsg:
		a.received = msg
		a.recCursor = clampCursor(a.recCursor, len(a.received))
		return a, a.bridge.Next()

	case budgetMsg:
		a.budget = msg.budget
		return a, a.bridge.Next()

	case dashboardMsg:
		a.dash = model.DashboardSnapshot(msg)
		return a, a.bridge.Next()

	case profileMsg:
		a.profile = model.Profile(msg)
		return a, a.bridge.Next()

	case noticeMsg:
		a.notices = append(a.notices, notify.Notice(msg))
		return a, a.bridge.Next()

	case stateMsg:
		return a.applyState(app.State(msg))

	case opDoneMsg:
		if msg.err != nil && msg.kind != formNone && a.form == nil {
			cmd := a.openForm(msg.kind, msg.vals)
			return a, cmd
		}
		return a, nil

	case editLoadedMsg:
		if msg.err != nil || a.form != nil {
			return a, nil
		}
		v := &formValues{editID: msg.id}
		if msg.kind == formExpense {
			v.expense = ledger.ExpenseInputFrom(msg.expense)
		} else {
			v.received = ledger.ReceivedInputFrom(msg.received)
		}
		cmd := a.openForm(msg.kind, v)
		return a, cmd

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

// applyState follows the view controller. Signing out clears everything
// shown and opens the sign-in form.
func (a App) applyState(s app.State) (tea.Model, tea.Cmd) {
	prev := a.state
	a.state = s
	cmds := []tea.Cmd{a.bridge.Next()}

	switch s.Screen {
	case app.ScreenUnauthenticated:
		if prev.Screen == app.ScreenAuthenticated {
			a.expenses, a.received, a.budget = nil, nil, nil
			a.dash, a.profile = model.DashboardSnapshot{}, model.Profile{}
			a.expCursor, a.recCursor = 0, 0
			a.confirm = nil
			a.closeForm()
		}
		if a.form == nil {
			cmds = append(cmds, a.openForm(formLogin, &formValues{}))
		}
	case app.ScreenAuthenticated:
		if a.formKind.isAuth() {
			a.closeForm()
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// Notices are modal until dismissed.
	if len(a.notices) > 0 {
		switch key {
		case "enter", "esc", " ", "q":
			a.notices = a.notices[1:]
		}
		return a, nil
	}

	if a.confirm != nil {
		switch key {
		case "y", "Y", "enter":
			action := a.confirm.action
			a.confirm = nil
			return a, action()
		case "n", "N", "esc", "q":
			a.confirm = nil
		}
		return a, nil
	}

	if a.form != nil {
		switch {
		case key == "esc" && !a.formKind.isAuth():
			a.closeForm()
			return a, nil
		case key == "ctrl+n" && a.formKind.isAuth():
			next := formSignup
			if a.formKind == formSignup {
				next = formLogin
			}
			a.closeForm()
			cmd := a.openForm(next, &formValues{})
			return a, cmd
		}
		return a.updateForm(msg)
	}

	if a.state.Screen != app.ScreenAuthenticated {
		cmd := a.openForm(formLogin, &formValues{})
		return a, cmd
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "right", "tab", "l":
		return a.navigate(app.Tabs[(a.tabIndex()+1)%len(app.Tabs)])
	case "left", "shift+tab", "h":
		return a.navigate(app.Tabs[(a.tabIndex()+len(app.Tabs)-1)%len(app.Tabs)])
	}
	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			return a.navigate(app.Tabs[idx])
		}
	}

	switch a.state.Tab {
	case app.TabExpenses:
		return a.updateExpensesKeys(key)
	case app.TabReceived:
		return a.updateReceivedKeys(key)
	case app.TabBudget:
		if key == "e" || key == "enter" {
			v := &formValues{}
			in := ledger.BudgetInputFrom(a.budget)
			for i, c := range model.Categories {
				v.limits[i] = in[c]
			}
			cmd := a.openForm(formBudget, v)
			return a, cmd
		}
	case app.TabProfile:
		return a.updateProfileKeys(key)
	}
	return a, nil
}

func (a App) tabIndex() int {
	for i, t := range app.Tabs {
		if t == a.state.Tab {
			return i
		}
	}
	return 0
}

func (a App) navigate(tab app.Tab) (tea.Model, tea.Cmd) {
	if err := a.core.Controller.Navigate(tab); err == nil {
		a.state.Tab = tab
	}
	return a, nil
}

func (a App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.state.Screen != app.ScreenAuthenticated || a.form != nil || a.confirm != nil || len(a.notices) > 0 {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return a.moveCursor(-1), nil
	case tea.MouseButtonWheelDown:
		return a.moveCursor(1), nil
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if idx := a.tabAtX(msg.X); idx >= 0 {
				return a.navigate(app.Tabs[idx])
			}
		}
	}
	return a, nil
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	active := a.tabIndex()
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, i == active)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

func (a App) moveCursor(delta int) App {
	switch a.state.Tab {
	case app.TabExpenses:
		a.expCursor = clampCursor(a.expCursor+delta, len(a.expenses))
	case app.TabReceived:
		a.recCursor = clampCursor(a.recCursor+delta, len(a.received))
	}
	return a
}

func clampCursor(c, n int) int {
	if c >= n {
		c = n - 1
	}
	if c < 0 {
		c = 0
	}
	return c
}

func (a App) updateExpensesKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		return a.moveCursor(1), nil
	case "k", "up":
		return a.moveCursor(-1), nil
	case "g":
		a.expCursor = 0
	case "G":
		a.expCursor = clampCursor(len(a.expenses)-1, len(a.expenses))
	case "a":
		cmd := a.openForm(formExpense, newExpenseValues(a.today()))
		return a, cmd
	case "e", "enter":
		if len(a.expenses) > 0 {
			return a, a.loadForEdit(formExpense, a.expenses[a.expCursor].ID)
		}
	case "d":
		if len(a.expenses) > 0 {
			e := a.expenses[a.expCursor]
			core, ctx := a.core, a.ctx
			a.confirm = &confirmState{
				prompt: fmt.Sprintf("Delete expense %s (%s)?", e.Merchant, e.Date),
				action: func() tea.Cmd {
					return func() tea.Msg { return opDoneMsg{err: core.DeleteExpense(ctx, e.ID)} }
				},
			}
		}
	}
	return a, nil
}

func (a App) updateReceivedKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		return a.moveCursor(1), nil
	case "k", "up":
		return a.moveCursor(-1), nil
	case "g":
		a.recCursor = 0
	case "G":
		a.recCursor = clampCursor(len(a.received)-1, len(a.received))
	case "a":
		cmd := a.openForm(formReceived, newReceivedValues(a.today()))
		return a, cmd
	case "e", "enter":
		if len(a.received) > 0 {
			return a, a.loadForEdit(formReceived, a.received[a.recCursor].ID)
		}
	case "d":
		if len(a.received) > 0 {
			r := a.received[a.recCursor]
			core, ctx := a.core, a.ctx
			a.confirm = &confirmState{
				prompt: fmt.Sprintf("Delete payment from %s (%s)?", r.Payer, r.Date),
				action: func() tea.Cmd {
					return func() tea.Msg { return opDoneMsg{err: core.DeleteReceived(ctx, r.ID)} }
				},
			}
		}
	}
	return a, nil
}

func (a App) updateProfileKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "e":
		cmd := a.openForm(formProfile, &formValues{profile: ledger.ProfileInput{
			Name:   a.profile.Name,
			Email:  a.profile.Email,
			Mobile: a.profile.Mobile,
		}})
		return a, cmd
	case "p":
		cmd := a.openForm(formPassword, &formValues{})
		return a, cmd
	case "o":
		core, ctx := a.core, a.ctx
		a.confirm = &confirmState{
			prompt: "Sign out?",
			action: func() tea.Cmd {
				return func() tea.Msg { return opDoneMsg{err: core.Logout(ctx)} }
			},
		}
	}
	return a, nil
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.state.Screen != app.ScreenAuthenticated {
		return a.viewAuth()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	t := theme.Active
	msg := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Background).
		Render(fmt.Sprintf("Terminal too narrow (%d cols). Need at least %d.", a.width, minTerminalWidth))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, msg,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewAuth() string {
	t := theme.Active

	var body string
	switch {
	case len(a.notices) > 0:
		body = a.renderNotice(a.notices[0])
	case a.form != nil:
		titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
		hintStyle := lipgloss.NewStyle().Foreground(t.TextDim)
		hint := "ctrl+n: create an account"
		if a.formKind == formSignup {
			hint = "ctrl+n: back to sign in"
		}
		body = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderAccent).
			Padding(1, 3).
			Render(titleStyle.Render("◈ fintrack") + "\n\n" + a.form.View() + "\n" + hintStyle.Render(hint))
	default:
		body = lipgloss.NewStyle().Foreground(t.TextMuted).Render("Signing in…")
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, body,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.tabIndex(), w)
	statusBar := components.RenderStatusBar(w, a.core.Auth.Current().Email, a.feeds())

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch {
	case len(a.notices) > 0:
		content = a.overlay(a.renderNotice(a.notices[0]), cw, contentH)
	case a.confirm != nil:
		content = a.overlay(a.renderConfirm(a.confirm.prompt), cw, contentH)
	case a.form != nil:
		content = a.overlay(a.renderFormCard(), cw, contentH)
	case a.showHelp:
		content = a.overlay(a.renderHelp(), cw, contentH)
	default:
		switch a.state.Tab {
		case app.TabDashboard:
			content = a.renderDashboardTab(cw)
		case app.TabExpenses:
			content = a.renderExpensesTab(cw, contentH)
		case app.TabReceived:
			content = a.renderReceivedTab(cw, contentH)
		case app.TabBudget:
			content = a.renderBudgetTab(cw)
		case app.TabProfile:
			content = a.renderProfileTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) feeds() []components.FeedState {
	labels := map[model.Kind]string{
		model.KindExpense:  "expenses",
		model.KindReceived: "received",
		model.KindBudget:   "budget",
	}
	out := make([]components.FeedState, 0, len(model.SubscribedKinds))
	for _, k := range model.SubscribedKinds {
		out = append(out, components.FeedState{Label: labels[k], Mode: a.core.Listeners.Mode(k).String()})
	}
	return out
}

func (a App) overlay(card string, w, h int) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(theme.Active.Background))
}

func (a App) renderFormCard() string {
	t := theme.Active
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("esc: cancel")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Render(a.form.View() + "\n" + hint)
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to w columns with the background
// colour so gaps between cards are not left unstyled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	fill := lipgloss.NewStyle().Background(bg)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if gap := w - lipgloss.Width(line); gap > 0 {
			lines[i] = line + fill.Render(strings.Repeat(" ", gap))
		}
	}
	return strings.Join(lines, "\n")
}

func listWindow(cursor, n, visible int) (int, int) {
	if visible < 1 {
		visible = 1
	}
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	end := start + visible
	if end > n {
		end = n
	}
	return start, end
}
