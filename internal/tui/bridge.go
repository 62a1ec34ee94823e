package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/notify"
)

type (
	expensesMsg  []model.ExpenseRecord
	receivedMsg  []model.ReceivedRecord
	budgetMsg    struct{ budget *model.BudgetRecord }
	dashboardMsg model.DashboardSnapshot
	profileMsg   model.Profile
	stateMsg     app.State
	noticeMsg    notify.Notice
)

// Bridge carries presenter and notifier callbacks into the Bubble Tea
// loop. Callbacks never block: messages queue without bound until the
// program reads them.
type Bridge struct {
	mu     sync.Mutex
	queue  []tea.Msg
	ready  chan struct{}
	closed bool
}

var (
	_ app.Presenter   = (*Bridge)(nil)
	_ notify.Notifier = (*Bridge)(nil)
)

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{ready: make(chan struct{}, 1)}
}

func (b *Bridge) push(msg tea.Msg) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// pop returns the oldest queued message, or nil when empty.
func (b *Bridge) pop() (tea.Msg, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil, b.closed
	}
	msg := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	return msg, false
}

// Next returns a command that waits for the next queued message.
func (b *Bridge) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			msg, closed := b.pop()
			if msg != nil {
				return msg
			}
			if closed {
				return nil
			}
			<-b.ready
		}
	}
}

// Close wakes any waiting Next command; later pushes are dropped.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// Len reports how many messages are queued.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Bridge) ShowExpenses(list []model.ExpenseRecord) { b.push(expensesMsg(list)) }
func (b *Bridge) ShowReceived(list []model.ReceivedRecord) { b.push(receivedMsg(list)) }
func (b *Bridge) ShowBudget(budget *model.BudgetRecord)    { b.push(budgetMsg{budget}) }
func (b *Bridge) ShowDashboard(s model.DashboardSnapshot)  { b.push(dashboardMsg(s)) }
func (b *Bridge) ShowProfile(p model.Profile)              { b.push(profileMsg(p)) }
func (b *Bridge) ShowState(s app.State)                    { b.push(stateMsg(s)) }
func (b *Bridge) Notify(n notify.Notice)                   { b.push(noticeMsg(n)) }
