// Package daemon provides the long-running headless service that keeps the
// signed-in user's dashboard live and streams it to local clients.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/olahol/melody"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/logger"
	"github.com/theirongolddev/fintrack/internal/model"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
	StorePath    string
	Logger       *zap.SugaredLogger
}

// Warning is a budget warning in event payloads.
type Warning struct {
	Category     model.Category  `json:"category"`
	UsagePercent decimal.Decimal `json:"usage_percent"`
	Remaining    decimal.Decimal `json:"remaining"`
}

// Snapshot is a compact dashboard state for status/event payloads.
type Snapshot struct {
	At            time.Time       `json:"at"`
	Expenses      int             `json:"expenses"`
	Received      int             `json:"received"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalReceived decimal.Decimal `json:"total_received"`
	NetBalance    decimal.Decimal `json:"net_balance"`
	Warnings      []Warning       `json:"warnings"`
}

// Delta captures the change between two snapshots.
type Delta struct {
	Expenses      int             `json:"expenses"`
	Received      int             `json:"received"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalReceived decimal.Decimal `json:"total_received"`
	Warnings      int             `json:"warnings"`
}

func (d Delta) isZero() bool {
	return d.Expenses == 0 &&
		d.Received == 0 &&
		d.TotalExpenses.IsZero() &&
		d.TotalReceived.IsZero() &&
		d.Warnings == 0
}

// Event is emitted whenever the dashboard changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastUpdateAt    time.Time `json:"last_update_at"`
	UpdateCount     int64     `json:"update_count"`
	SignedIn        bool      `json:"signed_in"`
	StorePath       string    `json:"store_path"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
	SocketCount     int       `json:"socket_count"`
}

// Service is the daemon runtime and HTTP API. It is an app.Presenter: the
// listener manager pushes every dashboard recomputation into it.
type Service struct {
	cfg Config
	log *zap.SugaredLogger
	ws  *melody.Melody

	mu           sync.RWMutex
	startedAt    time.Time
	lastUpdateAt time.Time
	updateCount  int64
	lastError    string
	signedIn     bool
	expenses     int
	received     int
	hasSnapshot  bool
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

var _ app.Presenter = (*Service)(nil)

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	s := &Service{
		cfg:       cfg,
		log:       logger.OrNop(cfg.Logger).With("component", "daemon"),
		ws:        melody.New(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	s.ws.Config.PingPeriod = 30 * time.Second
	s.ws.Config.PongWait = 60 * time.Second
	s.ws.HandleConnect(s.handleSocketConnect)
	s.ws.HandleError(func(_ *melody.Session, err error) {
		s.log.Debugw("websocket error", "error", err)
	})
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/ws", s.handleSocket)
	return mux
}

// Run serves the HTTP API, and runs every extra task alongside it, until
// ctx is canceled or any of them fails.
func (s *Service) Run(ctx context.Context, tasks ...func(context.Context) error) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infow("listening", "addr", s.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.ws.Close()
		return server.Shutdown(shutdownCtx)
	})
	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}
	return g.Wait()
}

// ReportError records a failure for /v1/status.
func (s *Service) ReportError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// ShowExpenses records the expense count.
func (s *Service) ShowExpenses(list []model.ExpenseRecord) {
	s.mu.Lock()
	s.expenses = len(list)
	s.mu.Unlock()
}

// ShowReceived records the received count.
func (s *Service) ShowReceived(list []model.ReceivedRecord) {
	s.mu.Lock()
	s.received = len(list)
	s.mu.Unlock()
}

// ShowBudget is a no-op; budget effects arrive with the dashboard.
func (s *Service) ShowBudget(*model.BudgetRecord) {}

// ShowProfile is a no-op.
func (s *Service) ShowProfile(model.Profile) {}

// ShowState tracks whether anyone is signed in.
func (s *Service) ShowState(st app.State) {
	s.mu.Lock()
	s.signedIn = st.Screen == app.ScreenAuthenticated
	if !s.signedIn {
		s.expenses, s.received = 0, 0
	}
	s.mu.Unlock()
}

// ShowDashboard publishes a snapshot event when the dashboard changed.
func (s *Service) ShowDashboard(d model.DashboardSnapshot) {
	now := time.Now()

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	snap := snapshotFromDashboard(d, s.expenses, s.received, now)
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastUpdateAt = now
	s.updateCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "dashboard_delta", Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromDashboard(d model.DashboardSnapshot, expenses, received int, at time.Time) Snapshot {
	warnings := make([]Warning, 0, len(d.Warnings))
	for _, w := range d.Warnings {
		warnings = append(warnings, Warning{
			Category:     w.Category,
			UsagePercent: w.UsagePercent.Round(2),
			Remaining:    w.Remaining.Round(2),
		})
	}
	return Snapshot{
		At:            at,
		Expenses:      expenses,
		Received:      received,
		TotalExpenses: d.TotalExpenses,
		TotalReceived: d.TotalReceived,
		NetBalance:    d.NetBalance,
		Warnings:      warnings,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Expenses:      curr.Expenses - prev.Expenses,
		Received:      curr.Received - prev.Received,
		TotalExpenses: curr.TotalExpenses.Sub(prev.TotalExpenses),
		TotalReceived: curr.TotalReceived.Sub(prev.TotalReceived),
		Warnings:      len(curr.Warnings) - len(prev.Warnings),
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()

	if data, err := json.Marshal(ev); err == nil {
		if err := s.ws.Broadcast(data); err != nil && !errors.Is(err, melody.ErrClosed) {
			s.log.Debugw("websocket broadcast failed", "error", err)
		}
	}
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastUpdateAt:    s.lastUpdateAt,
		UpdateCount:     s.updateCount,
		SignedIn:        s.signedIn,
		StorePath:       s.cfg.StorePath,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
		SocketCount:     s.ws.Len(),
	}
}

func (s *Service) currentEvent() Event {
	return Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	writeSSE(w, s.currentEvent())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func (s *Service) handleSocket(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.HandleRequest(w, r); err != nil {
		s.log.Debugw("websocket upgrade failed", "error", err)
	}
}

func (s *Service) handleSocketConnect(session *melody.Session) {
	data, err := json.Marshal(s.currentEvent())
	if err != nil {
		return
	}
	_ = session.Write(data)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
