// Package store is the record store: a per-user document collection
// service with one-shot queries, live subscriptions and merge writes.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get and Update when the document is absent.
	ErrNotFound = errors.New("document not found")
	// ErrIndexRequired is returned when an ordered query has no declared index.
	ErrIndexRequired = errors.New("query requires an index")
	// ErrPermissionDenied is returned when a rule rejects the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnavailable is returned when the backing database cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
	// ErrInvalidQuery is returned for malformed queries.
	ErrInvalidQuery = errors.New("invalid query")
)

type serverTimestamp struct{}

// ServerTimestamp, used as a field value on write, is replaced by the
// store's clock at commit time.
var ServerTimestamp any = serverTimestamp{}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value string
}

// Query selects documents from one collection. DocID limits the result to
// a single document. OrderBy sorts on a top-level field.
type Query struct {
	Collection string
	DocID      string
	Where      []Filter
	OrderBy    string
	Desc       bool
}

// Document is a stored record. Numeric fields decode as json.Number and
// server timestamps as RFC 3339 strings.
type Document struct {
	ID         string
	Fields     map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

// String returns the named field as a string, "" when absent.
func (d Document) String(field string) string {
	if v, ok := d.Fields[field].(string); ok {
		return v
	}
	return ""
}

// Time returns the named timestamp field, zero when absent or unparseable.
func (d Document) Time(field string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, d.String(field))
	return t
}

// Subscription is a live query. Items returns the latest delivered
// snapshot. Close stops delivery and releases the subscription; it is
// safe to call more than once.
type Subscription interface {
	Items() []Document
	Close() error
}

// Store is the record store contract.
type Store interface {
	Query(ctx context.Context, q Query) ([]Document, error)
	// Subscribe validates q, then delivers snapshots asynchronously in
	// order. onSnapshot receives the initial result and every later change.
	// onError reports failures after setup; the subscription stays open.
	Subscribe(ctx context.Context, q Query, onSnapshot func([]Document), onError func(error)) (Subscription, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}
