// Package store provides real-time document collections backing the
// ticket mirror. Every backend delivers full snapshots of the collection
// to subscribers whenever it changes.
package store

import (
	"context"
	"sync"
)

// Document is a single record in a collection.
type Document struct {
	ID     string
	Fields map[string]any
}

// String returns the named field as a string, or "" when absent or not a string.
func (d Document) String(name string) string {
	s, _ := d.Fields[name].(string)
	return s
}

// Collection is a remote document collection with push notifications.
type Collection interface {
	// Subscribe delivers the current snapshot and then one full snapshot per
	// change, in emission order, from a single goroutine. A subscription
	// failure is reported once through onError and ends delivery. The
	// returned function releases the subscription; it is safe to call more
	// than once.
	Subscribe(ctx context.Context, onSnapshot func([]Document), onError func(error)) (unsubscribe func())

	// Insert appends a document and returns its backend-assigned ID.
	Insert(ctx context.Context, fields map[string]any) (string, error)

	// Update overwrites the fields of an existing document. It returns an
	// error matching ErrNotFound when id does not exist.
	Update(ctx context.Context, id string, fields map[string]any) error

	// Remove deletes the document identified by id.
	Remove(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// event is one notification for a subscriber: a snapshot or a failure.
type event struct {
	docs []Document
	err  error
}

// mailbox is a single-slot, latest-wins handoff between producers and the
// delivery goroutine of a subscription. Intermediate snapshots may be
// skipped; the most recent one is always delivered.
type mailbox struct {
	ch chan event
}

func newMailbox() *mailbox {
	return &mailbox{ch: make(chan event, 1)}
}

// put replaces any undelivered event with ev.
func (m *mailbox) put(ev event) {
	for {
		select {
		case m.ch <- ev:
			return
		default:
		}
		select {
		case <-m.ch:
		default:
		}
	}
}

// subscription tracks one subscriber's lifetime.
type subscription struct {
	box    *mailbox
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSubscription(ctx context.Context) (*subscription, context.Context) {
	subCtx, cancel := context.WithCancel(ctx)
	return &subscription{
		box:    newMailbox(),
		cancel: cancel,
		done:   make(chan struct{}),
	}, subCtx
}

// deliver runs the subscriber callbacks until ctx ends or an error is
// delivered. It must run on its own goroutine.
func (s *subscription) deliver(ctx context.Context, onSnapshot func([]Document), onError func(error)) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.box.ch:
			if ctx.Err() != nil {
				return
			}
			if ev.err != nil {
				onError(ev.err)
				return
			}
			onSnapshot(ev.docs)
		}
	}
}

// stop cancels the subscription and waits for its delivery goroutine. It
// must not be called from inside a subscriber callback.
func (s *subscription) stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
