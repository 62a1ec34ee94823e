// Package auth is the identity session provider: who is signed in, and
// notification when that changes.
package auth

import (
	"context"
	"sort"
	"sync"

	"github.com/theirongolddev/fintrack/internal/model"
)

// Provider is the identity session provider contract.
type Provider interface {
	// Current returns the signed-in identity, zero when signed out.
	Current() model.Identity
	// OnIdentityChange registers fn for every later transition. It does
	// not replay the current identity. The returned func unregisters fn.
	OnIdentityChange(fn func(model.Identity)) (cancel func())
	SignIn(ctx context.Context, email, password string) (model.Identity, error)
	SignUp(ctx context.Context, email, password, displayName string) (model.Identity, error)
	SignOut(ctx context.Context) error
	Reauthenticate(ctx context.Context, currentPassword string) error
	ChangePassword(ctx context.Context, newPassword string) error
	UpdateEmail(ctx context.Context, email string) error
}

// listeners tracks identity callbacks and the current identity. Callbacks
// run outside the lock, in registration order.
type listeners struct {
	mu      sync.Mutex
	current model.Identity
	fns     map[int]func(model.Identity)
	nextID  int
}

func (l *listeners) get() model.Identity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *listeners) add(fn func(model.Identity)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(model.Identity))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

// set stores id and notifies listeners if it differs from the previous one.
func (l *listeners) set(id model.Identity) {
	l.mu.Lock()
	if l.current == id {
		l.mu.Unlock()
		return
	}
	l.current = id
	keys := make([]int, 0, len(l.fns))
	for k := range l.fns {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fns := make([]func(model.Identity), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, l.fns[k])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}
