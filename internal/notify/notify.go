// Package notify is the single surface through which user-facing failures
// and confirmations are delivered.
package notify

import (
	"sync"

	"github.com/theirongolddev/fintrack/internal/apperr"
)

// Notice is one message for the user.
type Notice struct {
	Title    string
	Severity apperr.Severity
	Message  string
}

// Notifier delivers notices to whatever presents them.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

// FromError builds the notice for err.
func FromError(err error) Notice {
	ae := apperr.From(err)
	return Notice{Title: ae.Title, Severity: ae.Severity, Message: ae.Message}
}

// Success builds a success notice.
func Success(msg string) Notice {
	return Notice{Title: "Success", Severity: apperr.SeveritySuccess, Message: msg}
}

// Recorder keeps every notice it receives. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
