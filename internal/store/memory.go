package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const backendMemory = "memory"

// Memory is an in-process collection used for tests, demos and dry runs.
type Memory struct {
	mu     sync.Mutex
	docs   map[string]map[string]any
	order  []string
	subs   map[*subscription]struct{}
	failed error
	closed bool
}

var _ Collection = (*Memory)(nil)

// NewMemory creates an empty in-memory collection.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]map[string]any),
		subs: make(map[*subscription]struct{}),
	}
}

// Subscribe implements Collection.
func (m *Memory) Subscribe(ctx context.Context, onSnapshot func([]Document), onError func(error)) func() {
	sub, subCtx := newSubscription(ctx)

	m.mu.Lock()
	switch {
	case m.closed:
		sub.box.put(event{err: NewStoreError(backendMemory, "subscribe", "", ErrClosed)})
	case m.failed != nil:
		sub.box.put(event{err: m.failed})
	default:
		m.subs[sub] = struct{}{}
		sub.box.put(event{docs: m.snapshotLocked()})
	}
	m.mu.Unlock()

	go sub.deliver(subCtx, onSnapshot, onError)

	return func() {
		m.mu.Lock()
		delete(m.subs, sub)
		m.mu.Unlock()
		sub.stop()
	}
}

// Fail ends every current subscription with err and makes later
// subscriptions fail the same way.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed = NewStoreError(backendMemory, "listen", "", err)
	for sub := range m.subs {
		sub.box.put(event{err: m.failed})
		delete(m.subs, sub)
	}
}

// Insert implements Collection.
func (m *Memory) Insert(_ context.Context, fields map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", NewStoreError(backendMemory, "insert", "", ErrClosed)
	}

	id := uuid.NewString()
	m.docs[id] = copyFields(fields)
	m.order = append(m.order, id)
	m.broadcastLocked()
	return id, nil
}

// Update implements Collection.
func (m *Memory) Update(_ context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return NewStoreError(backendMemory, "update", id, ErrClosed)
	}
	doc, ok := m.docs[id]
	if !ok {
		return NewStoreError(backendMemory, "update", id, ErrNotFound)
	}
	for k, v := range fields {
		doc[k] = v
	}
	m.broadcastLocked()
	return nil
}

// Remove implements Collection.
func (m *Memory) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return NewStoreError(backendMemory, "remove", id, ErrClosed)
	}
	if _, ok := m.docs[id]; !ok {
		return NewStoreError(backendMemory, "remove", id, ErrNotFound)
	}
	delete(m.docs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.broadcastLocked()
	return nil
}

// Close implements Collection. Active subscriptions are released.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	subs := make([]*subscription, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	m.subs = make(map[*subscription]struct{})
	m.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

func (m *Memory) snapshotLocked() []Document {
	docs := make([]Document, 0, len(m.order))
	for _, id := range m.order {
		docs = append(docs, Document{ID: id, Fields: copyFields(m.docs[id])})
	}
	return docs
}

func (m *Memory) broadcastLocked() {
	if len(m.subs) == 0 {
		return
	}
	docs := m.snapshotLocked()
	for sub := range m.subs {
		sub.box.put(event{docs: docs})
	}
}
