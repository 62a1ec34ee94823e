package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // register sqlite driver
)

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures a DocStore.
type Options struct {
	// EnforceIndexes rejects ordered queries on fields without a declared
	// index with ErrIndexRequired.
	EnforceIndexes bool
	// Indexes are declared at open, as "collection.field".
	Indexes []string
	// Now overrides the clock used for server timestamps.
	Now func() time.Time
}

// DocStore is a SQLite-backed document store with live subscriptions.
type DocStore struct {
	db      *sql.DB
	enforce bool
	now     func() time.Time
	hub     *hub

	mu      sync.RWMutex
	indexes map[string]struct{}
}

var _ Store = (*DocStore)(nil)

// Open opens or creates the store database at the given path and applies
// pending migrations.
func Open(dbPath string, opts Options) (*DocStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	s := &DocStore{
		db:      db,
		enforce: opts.EnforceIndexes,
		now:     opts.Now,
		hub:     newHub(),
		indexes: make(map[string]struct{}),
	}
	if s.now == nil {
		s.now = time.Now
	}

	ctx := context.Background()
	if err := s.loadIndexes(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, idx := range opts.Indexes {
		coll, field, ok := strings.Cut(idx, ".")
		if !ok {
			_ = db.Close()
			return nil, fmt.Errorf("%w: index %q", ErrInvalidQuery, idx)
		}
		if err := s.EnsureIndex(ctx, coll, field); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close stops every subscription and closes the database.
func (s *DocStore) Close() error {
	s.hub.closeAll()
	return s.db.Close()
}

// DB exposes the underlying database to packages sharing the file.
func (s *DocStore) DB() *sql.DB { return s.db }

func (s *DocStore) loadIndexes(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT collection, field FROM query_indexes")
	if err != nil {
		return dbErr("loading indexes", err)
	}
	defer func() { _ = rows.Close() }()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var coll, field string
		if err := rows.Scan(&coll, &field); err != nil {
			return err
		}
		s.indexes[coll+"."+field] = struct{}{}
	}
	return rows.Err()
}

// EnsureIndex declares that collection can be ordered by field.
func (s *DocStore) EnsureIndex(ctx context.Context, collection, field string) error {
	if collection == "" || !fieldNameRe.MatchString(field) {
		return fmt.Errorf("%w: index %s.%s", ErrInvalidQuery, collection, field)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO query_indexes (collection, field) VALUES (?, ?)", collection, field)
	if err != nil {
		return dbErr("declaring index", err)
	}
	s.mu.Lock()
	s.indexes[collection+"."+field] = struct{}{}
	s.mu.Unlock()
	return nil
}

// HasIndex reports whether collection.field has a declared index.
func (s *DocStore) HasIndex(collection, field string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[collection+"."+field]
	return ok
}

func (s *DocStore) buildQuery(q Query) (string, []any, error) {
	if q.Collection == "" {
		return "", nil, fmt.Errorf("%w: missing collection", ErrInvalidQuery)
	}

	var sb strings.Builder
	sb.WriteString("SELECT id, data, created_at, updated_at FROM documents WHERE collection = ?")
	args := []any{q.Collection}

	if q.DocID != "" {
		sb.WriteString(" AND id = ?")
		args = append(args, q.DocID)
	}
	for _, f := range q.Where {
		if !fieldNameRe.MatchString(f.Field) {
			return "", nil, fmt.Errorf("%w: field %q", ErrInvalidQuery, f.Field)
		}
		fmt.Fprintf(&sb, " AND json_extract(data, '$.%s') = ?", f.Field)
		args = append(args, f.Value)
	}

	if q.OrderBy == "" {
		sb.WriteString(" ORDER BY id")
		return sb.String(), args, nil
	}
	if !fieldNameRe.MatchString(q.OrderBy) {
		return "", nil, fmt.Errorf("%w: order field %q", ErrInvalidQuery, q.OrderBy)
	}
	if s.enforce && !s.HasIndex(q.Collection, q.OrderBy) {
		return "", nil, fmt.Errorf("%w: %s ordered by %s", ErrIndexRequired, q.Collection, q.OrderBy)
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	fmt.Fprintf(&sb, " ORDER BY json_extract(data, '$.%s') %s, id", q.OrderBy, dir)
	return sb.String(), args, nil
}

// Query runs q once.
func (s *DocStore) Query(ctx context.Context, q Query) ([]Document, error) {
	stmt, args, err := s.buildQuery(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, dbErr("querying "+q.Collection, err)
	}
	defer func() { _ = rows.Close() }()

	docs := []Document{}
	for rows.Next() {
		var id, data, created, updated string
		if err := rows.Scan(&id, &data, &created, &updated); err != nil {
			return nil, dbErr("scanning "+q.Collection, err)
		}
		doc, err := decodeDocument(id, data, created, updated)
		if err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", q.Collection, id, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("querying "+q.Collection, err)
	}
	return docs, nil
}

// Get reads one document.
func (s *DocStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var data, created, updated string
	err := s.db.QueryRowContext(ctx,
		"SELECT data, created_at, updated_at FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	).Scan(&data, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, dbErr("reading "+collection, err)
	}
	return decodeDocument(id, data, created, updated)
}

// Create inserts a document under a generated id.
func (s *DocStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := newDocID()
	now := s.stamp()
	data, err := encodeFields(fields, now)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		collection, id, data, now, now)
	if err != nil {
		return "", dbErr("creating in "+collection, err)
	}
	s.hub.notify(collection)
	return id, nil
}

// Update merges fields into an existing document.
func (s *DocStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	now := s.stamp()
	data, err := encodeFields(fields, now)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET data = json_patch(data, ?), updated_at = ? WHERE collection = ? AND id = ?",
		data, now, collection, id)
	if err != nil {
		return dbErr("updating "+collection, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	s.hub.notify(collection)
	return nil
}

// UpsertMerge merges fields into the document, creating it if needed.
func (s *DocStore) UpsertMerge(ctx context.Context, collection, id string, fields map[string]any) error {
	now := s.stamp()
	data, err := encodeFields(fields, now)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = json_patch(documents.data, excluded.data),
			updated_at = excluded.updated_at`,
		collection, id, data, now, now)
	if err != nil {
		return dbErr("upserting "+collection, err)
	}
	s.hub.notify(collection)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *DocStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return dbErr("deleting from "+collection, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.hub.notify(collection)
	}
	return nil
}

func (s *DocStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func newDocID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

func encodeFields(fields map[string]any, now string) (string, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == ServerTimestamp {
			v = now
		}
		out[k] = v
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding fields: %w", err)
	}
	return string(data), nil
}

func decodeDocument(id, data, created, updated string) (Document, error) {
	fields := make(map[string]any)
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return Document{}, err
	}
	doc := Document{ID: id, Fields: fields}
	doc.CreateTime, _ = time.Parse(time.RFC3339Nano, created)
	doc.UpdateTime, _ = time.Parse(time.RFC3339Nano, updated)
	return doc, nil
}

func dbErr(op string, err error) error {
	msg := err.Error()
	if errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
