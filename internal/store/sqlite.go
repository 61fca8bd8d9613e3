package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	backendSQLite       = "sqlite"
	defaultPollInterval = time.Second
)

// SQLite is a collection stored in a local SQLite database. Writes made
// through this value notify subscribers immediately; writes made by other
// processes are picked up by polling PRAGMA data_version.
type SQLite struct {
	db           *sql.DB
	collection   string
	pollInterval time.Duration

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool

	// loadMu serializes snapshot loads with their delivery so a slower,
	// older load never overwrites a newer snapshot.
	loadMu sync.Mutex

	stopPoll context.CancelFunc
	pollDone chan struct{}
}

var _ Collection = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and returns the
// named collection within it. A pollInterval of zero uses the default;
// a negative value disables cross-process polling.
func OpenSQLite(ctx context.Context, path, collection string, pollInterval time.Duration) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticket database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to ticket database: %w", err)
	}

	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	s := &SQLite{
		db:           db,
		collection:   collection,
		pollInterval: pollInterval,
		subs:         make(map[*subscription]struct{}),
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if pollInterval > 0 && path != ":memory:" {
		pollCtx, cancel := context.WithCancel(context.Background())
		s.stopPoll = cancel
		s.pollDone = make(chan struct{})
		go s.poll(pollCtx)
	}

	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			fields TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents(collection, seq)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize ticket schema: %w", err)
		}
	}
	return nil
}

// Subscribe implements Collection.
func (s *SQLite) Subscribe(ctx context.Context, onSnapshot func([]Document), onError func(error)) func() {
	sub, subCtx := newSubscription(ctx)

	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.subs[sub] = struct{}{}
	}
	s.mu.Unlock()

	if closed {
		sub.box.put(event{err: NewStoreError(backendSQLite, "subscribe", "", ErrClosed)})
	} else {
		go func() {
			s.loadMu.Lock()
			defer s.loadMu.Unlock()

			docs, err := s.load(subCtx)
			if err != nil {
				s.drop(sub)
				sub.box.put(event{err: NewStoreError(backendSQLite, "listen", "", err)})
				return
			}
			sub.box.put(event{docs: docs})
		}()
	}

	go sub.deliver(subCtx, onSnapshot, onError)

	return func() {
		s.drop(sub)
		sub.stop()
	}
}

func (s *SQLite) drop(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

// Insert implements Collection.
func (s *SQLite) Insert(ctx context.Context, fields map[string]any) (string, error) {
	if err := s.checkOpen("insert", ""); err != nil {
		return "", err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields, updated_at)
		VALUES (?, ?, ?, ?)
	`, s.collection, id, string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", NewStoreError(backendSQLite, "insert", "", err)
	}

	s.broadcast(ctx)
	return id, nil
}

// Update implements Collection. Given fields are merged into the document.
func (s *SQLite) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := s.checkOpen("update", id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStoreError(backendSQLite, "update", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, `
		SELECT fields FROM documents WHERE collection = ? AND id = ?
	`, s.collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return NewStoreError(backendSQLite, "update", id, ErrNotFound)
	}
	if err != nil {
		return NewStoreError(backendSQLite, "update", id, err)
	}

	current := make(map[string]any)
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		return fmt.Errorf("failed to parse stored document %s: %w", id, err)
	}
	for k, v := range fields {
		current[k] = v
	}
	data, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE documents SET fields = ?, updated_at = ? WHERE collection = ? AND id = ?
	`, string(data), time.Now().UTC().Format(time.RFC3339Nano), s.collection, id); err != nil {
		return NewStoreError(backendSQLite, "update", id, err)
	}
	if err := tx.Commit(); err != nil {
		return NewStoreError(backendSQLite, "update", id, err)
	}

	s.broadcast(ctx)
	return nil
}

// Remove implements Collection.
func (s *SQLite) Remove(ctx context.Context, id string) error {
	if err := s.checkOpen("remove", id); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = ? AND id = ?
	`, s.collection, id)
	if err != nil {
		return NewStoreError(backendSQLite, "remove", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return NewStoreError(backendSQLite, "remove", id, err)
	}
	if n == 0 {
		return NewStoreError(backendSQLite, "remove", id, ErrNotFound)
	}

	s.broadcast(ctx)
	return nil
}

// Close implements Collection.
func (s *SQLite) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[*subscription]struct{})
	s.mu.Unlock()

	if s.stopPoll != nil {
		s.stopPoll()
		<-s.pollDone
	}
	for _, sub := range subs {
		sub.stop()
	}
	return s.db.Close()
}

func (s *SQLite) checkOpen(op, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewStoreError(backendSQLite, op, id, ErrClosed)
	}
	return nil
}

// load reads the whole collection in arrival order.
func (s *SQLite) load(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fields FROM documents WHERE collection = ? ORDER BY seq
	`, s.collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields := make(map[string]any)
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return nil, fmt.Errorf("failed to parse stored document %s: %w", id, err)
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

// broadcast pushes a fresh snapshot to every subscriber. A failed load ends
// all subscriptions with the error.
func (s *SQLite) broadcast(ctx context.Context) {
	s.mu.Lock()
	if len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	// Snapshot delivery must not be tied to the writer's context.
	docs, err := s.load(context.WithoutCancel(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if err != nil {
			sub.box.put(event{err: NewStoreError(backendSQLite, "listen", "", err)})
			delete(s.subs, sub)
			continue
		}
		sub.box.put(event{docs: docs})
	}
}

func (s *SQLite) poll(ctx context.Context) {
	defer close(s.pollDone)

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	var last int64
	if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&last); err != nil {
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var version int64
		if err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&version); err != nil {
			continue
		}
		if version != last {
			last = version
			s.broadcast(ctx)
		}
	}
}
