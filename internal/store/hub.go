package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// hub fans change notifications out to live subscriptions per collection.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*subscription]struct{})}
}

func (h *hub) add(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sub.q.Collection]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[sub.q.Collection] = set
	}
	set[sub] = struct{}{}
}

func (h *hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.q.Collection]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.q.Collection)
		}
	}
}

func (h *hub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[collection] {
		sub.poke()
	}
}

func (h *hub) notifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for sub := range set {
			sub.poke()
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

func (h *hub) closeAll() {
	h.mu.Lock()
	var all []*subscription
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()
	for _, sub := range all {
		_ = sub.Close()
	}
}

// subscription re-runs its query on every change signal. Signals coalesce
// in a one-slot channel, so a burst of writes yields one fresh snapshot.
type subscription struct {
	store      *DocStore
	q          Query
	onSnapshot func([]Document)
	onError    func(error)

	signal    chan struct{}
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	mu    sync.RWMutex
	items []Document
}

// Subscribe opens a live query. Setup errors (bad query, missing index)
// are returned synchronously; the first snapshot arrives asynchronously.
func (s *DocStore) Subscribe(ctx context.Context, q Query, onSnapshot func([]Document), onError func(error)) (Subscription, error) {
	if _, _, err := s.buildQuery(q); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", q.Collection, err)
	}
	if onSnapshot == nil {
		onSnapshot = func([]Document) {}
	}
	if onError == nil {
		onError = func(error) {}
	}

	sub := &subscription{
		store:      s,
		q:          q,
		onSnapshot: onSnapshot,
		onError:    onError,
		signal:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	s.hub.add(sub)
	sub.poke()
	go sub.run(ctx)
	return sub, nil
}

// ActiveSubscriptions reports how many subscriptions are open.
func (s *DocStore) ActiveSubscriptions() int { return s.hub.count() }

func (sub *subscription) poke() {
	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

func (sub *subscription) run(ctx context.Context) {
	for {
		select {
		case <-sub.done:
			return
		case <-ctx.Done():
			_ = sub.Close()
			return
		case <-sub.signal:
		}

		docs, err := sub.store.Query(ctx, sub.q)
		if sub.closed.Load() || ctx.Err() != nil {
			continue
		}
		if err != nil {
			sub.onError(err)
			continue
		}

		sub.mu.Lock()
		sub.items = docs
		sub.mu.Unlock()
		sub.onSnapshot(docs)
	}
}

// Items returns the latest delivered snapshot.
func (sub *subscription) Items() []Document {
	sub.mu.RLock()
	defer sub.mu.RUnlock()
	return append([]Document(nil), sub.items...)
}

// Close stops delivery. A callback already running may finish.
func (sub *subscription) Close() error {
	sub.closeOnce.Do(func() {
		sub.closed.Store(true)
		close(sub.done)
		sub.store.hub.remove(sub)
	})
	return nil
}

// Watch polls for commits made through other connections, including other
// processes sharing the file, and wakes every subscription when one lands.
// It blocks until ctx is done.
func (s *DocStore) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return dbErr("opening watch connection", err)
	}
	defer func() { _ = conn.Close() }()

	version := func() (int64, error) {
		var v int64
		err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
		return v, err
	}

	last, err := version()
	if err != nil {
		return dbErr("reading data version", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			v, err := version()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return dbErr("reading data version", err)
			}
			if v != last {
				last = v
				s.hub.notifyAll()
			}
		}
	}
}
