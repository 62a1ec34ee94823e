// Package listener keeps one live store subscription per record kind for
// the signed-in user and owns the record lists those subscriptions feed.
package listener

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/notify"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/store"
)

// Presenter receives every applied snapshot.
type Presenter interface {
	ShowExpenses([]model.ExpenseRecord)
	ShowReceived([]model.ReceivedRecord)
	ShowBudget(*model.BudgetRecord)
	ShowDashboard(model.DashboardSnapshot)
}

// NopPresenter ignores everything.
type NopPresenter struct{}

func (NopPresenter) ShowExpenses([]model.ExpenseRecord)    {}
func (NopPresenter) ShowReceived([]model.ReceivedRecord)   {}
func (NopPresenter) ShowBudget(*model.BudgetRecord)        {}
func (NopPresenter) ShowDashboard(model.DashboardSnapshot) {}

// Mode is how a kind is currently fed.
type Mode int

const (
	ModeOff      Mode = iota // no subscription
	ModeLive                 // live ordered subscription
	ModeFallback             // one-shot unordered read, sorted locally
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeFallback:
		return "fallback"
	}
	return "off"
}

// Options configures a Manager. Nil collaborators get no-op stand-ins.
type Options struct {
	Store     store.Store
	Presenter Presenter
	// DashboardVisible reports whether the dashboard is on screen; the
	// dashboard is only recomputed on push while it is.
	DashboardVisible func() bool
	Notifier         notify.Notifier
	Logger           *zap.SugaredLogger
}

// Data is a copy of the held record lists.
type Data struct {
	Expenses []model.ExpenseRecord
	Received []model.ReceivedRecord
	Budget   *model.BudgetRecord
}

type handle struct {
	kind     model.Kind
	epoch    uint64
	sub      store.Subscription
	fallback bool
}

// Manager is the listener lifecycle manager.
type Manager struct {
	store     store.Store
	presenter Presenter
	visible   func() bool
	notifier  notify.Notifier
	log       *zap.SugaredLogger

	mu       sync.Mutex
	identity model.Identity
	epoch    uint64
	handles  map[model.Kind]*handle
	advised  map[model.Kind]bool
	expenses []model.ExpenseRecord
	received []model.ReceivedRecord
	budget   *model.BudgetRecord
}

// New creates a Manager.
func New(opts Options) *Manager {
	m := &Manager{
		store:     opts.Store,
		presenter: opts.Presenter,
		visible:   opts.DashboardVisible,
		notifier:  opts.Notifier,
		log:       logger.OrNop(opts.Logger).With("component", "listener"),
		handles:   make(map[model.Kind]*handle),
		advised:   make(map[model.Kind]bool),
	}
	if m.presenter == nil {
		m.presenter = NopPresenter{}
	}
	if m.visible == nil {
		m.visible = func() bool { return false }
	}
	if m.notifier == nil {
		m.notifier = notify.Discard
	}
	return m
}

// StartAll (re)subscribes every kind for id. Existing subscriptions are
// closed first. A setup failure for one kind falls back to a one-shot read
// for that kind and never affects the others.
func (m *Manager) StartAll(ctx context.Context, id model.Identity) error {
	if id.IsZero() {
		return apperr.ErrNotAuthenticated
	}

	m.mu.Lock()
	if m.identity.UID != id.UID {
		m.clearDataLocked()
	}
	m.identity = id
	m.epoch++
	epoch := m.epoch
	old := m.handles
	m.handles = make(map[model.Kind]*handle, len(model.SubscribedKinds))
	m.mu.Unlock()

	closeHandles(old)

	for _, kind := range model.SubscribedKinds {
		m.start(ctx, kind, id, epoch)
	}
	return nil
}

func (m *Manager) start(ctx context.Context, kind model.Kind, id model.Identity, epoch uint64) {
	h := &handle{kind: kind, epoch: epoch}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.handles[kind] = h
	m.mu.Unlock()

	st := store.Owned(m.store, ledger.FieldOwner, id.UID)
	sub, err := st.Subscribe(ctx, ledger.OwnerQuery(kind, id.UID, true),
		func(docs []store.Document) { m.apply(h, docs) },
		func(err error) { m.subscriptionError(h, err) },
	)
	if err != nil {
		m.fallback(ctx, h, st, id, err)
		return
	}

	m.mu.Lock()
	current := m.handles[kind] == h
	if current {
		h.sub = sub
	}
	m.mu.Unlock()
	if !current {
		_ = sub.Close()
		return
	}
	m.log.Debugw("subscribed", "kind", kind)
}

// fallback replaces a failed subscription with an unordered read sorted
// locally.
func (m *Manager) fallback(ctx context.Context, h *handle, st store.Store, id model.Identity, cause error) {
	m.mu.Lock()
	if m.handles[h.kind] != h {
		m.mu.Unlock()
		return
	}
	h.fallback = true
	advise := true
	if errors.Is(cause, store.ErrIndexRequired) {
		advise = !m.advised[h.kind]
		m.advised[h.kind] = true
	}
	m.mu.Unlock()

	m.log.Warnw("subscription setup failed, falling back to one-shot read", "kind", h.kind, "error", cause)
	if advise {
		m.advisory(cause)
	}

	docs, err := st.Query(ctx, ledger.OwnerQuery(h.kind, id.UID, false))
	if err != nil {
		m.log.Errorw("fallback read failed", "kind", h.kind, "error", err)
		m.notifier.Notify(notify.FromError(err))
		return
	}
	m.apply(h, docs)
}

func (m *Manager) subscriptionError(h *handle, err error) {
	m.mu.Lock()
	stale := m.handles[h.kind] != h
	m.mu.Unlock()
	if stale {
		return
	}
	m.log.Warnw("subscription error", "kind", h.kind, "error", err)
	m.advisory(err)
}

func (m *Manager) advisory(err error) {
	n := notify.FromError(err)
	if n.Severity == apperr.SeverityError {
		n.Severity = apperr.SeverityWarning
	}
	m.notifier.Notify(n)
}

// apply stores a snapshot delivered for h and presents it. Snapshots for
// handles that are no longer current are dropped.
func (m *Manager) apply(h *handle, docs []store.Document) {
	m.mu.Lock()
	if m.handles[h.kind] != h || h.epoch != m.epoch {
		m.mu.Unlock()
		return
	}
	present := m.setLocked(h.kind, docs, h.fallback)
	m.mu.Unlock()

	present()
	m.refreshDashboard()
}

// setLocked replaces the held data for kind and returns the presenter
// call to run once the lock is released.
func (m *Manager) setLocked(kind model.Kind, docs []store.Document, sort bool) func() {
	switch kind {
	case model.KindExpense:
		list := ledger.DecodeExpenses(docs)
		if sort {
			list = pipeline.SortByDateDesc(list)
		}
		m.expenses = list
		cp := append([]model.ExpenseRecord(nil), list...)
		return func() { m.presenter.ShowExpenses(cp) }
	case model.KindReceived:
		list := ledger.DecodeReceivedList(docs)
		if sort {
			list = pipeline.SortByDateDesc(list)
		}
		m.received = list
		cp := append([]model.ReceivedRecord(nil), list...)
		return func() { m.presenter.ShowReceived(cp) }
	case model.KindBudget:
		m.budget = nil
		if len(docs) > 0 {
			m.budget = ledger.DecodeBudget(docs[0])
		}
		b := m.budget
		return func() { m.presenter.ShowBudget(b) }
	}
	return func() {}
}

func (m *Manager) refreshDashboard() {
	if m.visible() {
		m.presenter.ShowDashboard(m.Dashboard())
	}
}

// Load reads kind once and presents it. It is for kinds without a live
// subscription; a result that arrives after the identity changed, or
// after a live subscription took over, is discarded.
func (m *Manager) Load(ctx context.Context, kind model.Kind) error {
	m.mu.Lock()
	id, epoch := m.identity, m.epoch
	m.mu.Unlock()
	if id.IsZero() {
		return apperr.ErrNotAuthenticated
	}

	st := store.Owned(m.store, ledger.FieldOwner, id.UID)
	sorted := false
	docs, err := st.Query(ctx, ledger.OwnerQuery(kind, id.UID, true))
	if errors.Is(err, store.ErrIndexRequired) {
		sorted = true
		docs, err = st.Query(ctx, ledger.OwnerQuery(kind, id.UID, false))
	}
	if err != nil {
		return apperr.From(err)
	}

	m.mu.Lock()
	if m.epoch != epoch || m.identity.UID != id.UID {
		m.mu.Unlock()
		m.log.Debugw("discarding stale load", "kind", kind)
		return nil
	}
	if h, ok := m.handles[kind]; ok && !h.fallback {
		m.mu.Unlock()
		return nil
	}
	present := m.setLocked(kind, docs, sorted)
	m.mu.Unlock()

	present()
	return nil
}

// StopAll closes every subscription and forgets the identity and its data.
func (m *Manager) StopAll() {
	m.mu.Lock()
	old := m.handles
	m.handles = make(map[model.Kind]*handle)
	m.epoch++
	m.identity = model.Identity{}
	m.clearDataLocked()
	m.mu.Unlock()

	closeHandles(old)
}

func closeHandles(hs map[model.Kind]*handle) {
	for _, h := range hs {
		if h.sub != nil {
			_ = h.sub.Close()
		}
	}
}

func (m *Manager) clearDataLocked() {
	m.expenses = nil
	m.received = nil
	m.budget = nil
}

// Active reports whether kind has a live subscription.
func (m *Manager) Active(kind model.Kind) bool {
	return m.Mode(kind) == ModeLive
}

// Mode reports how kind is currently fed.
func (m *Manager) Mode(kind model.Kind) Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[kind]
	switch {
	case !ok:
		return ModeOff
	case h.fallback:
		return ModeFallback
	}
	return ModeLive
}

// ActiveCount is the number of live subscriptions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, h := range m.handles {
		if !h.fallback {
			n++
		}
	}
	return n
}

// Identity is the identity the manager is scoped to.
func (m *Manager) Identity() model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Data returns copies of the held lists.
func (m *Manager) Data() Data {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Data{
		Expenses: append([]model.ExpenseRecord(nil), m.expenses...),
		Received: append([]model.ReceivedRecord(nil), m.received...),
		Budget:   m.budget,
	}
}

// Dashboard aggregates the held data.
func (m *Manager) Dashboard() model.DashboardSnapshot {
	d := m.Data()
	return pipeline.Aggregate(d.Expenses, d.Received, d.Budget)
}
