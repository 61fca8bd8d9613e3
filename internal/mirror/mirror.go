// Package mirror keeps a local, read-only copy of the remote ticket
// collection in sync and performs ticket mutations against it.
package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mobil-koeln/tickets/internal/models"
	"github.com/mobil-koeln/tickets/internal/store"
)

// Mirror binds a store collection to ticket semantics.
type Mirror struct {
	coll     store.Collection
	logger   zerolog.Logger
	attempts int
	backoff  time.Duration
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the logger used for mirror events.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Mirror) {
		m.logger = logger
	}
}

// WithRetry sets how often transient update and delete failures are retried.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(m *Mirror) {
		if attempts > 0 {
			m.attempts = attempts
		}
		if backoff >= 0 {
			m.backoff = backoff
		}
	}
}

// New creates a mirror over coll.
func New(coll store.Collection, opts ...Option) *Mirror {
	m := &Mirror{
		coll:     coll,
		logger:   zerolog.Nop(),
		attempts: defaultRetryAttempts,
		backoff:  defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle is an active subscription started by Start.
type Handle struct {
	mu          sync.Mutex
	stopped     bool
	cancel      context.CancelFunc
	unsubscribe func()
	once        sync.Once
}

// Stop releases the subscription. No callback runs after Stop returns.
// Calling Stop more than once is a no-op. Stop must not be called from
// inside a callback.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.mu.Unlock()

		h.cancel()
		h.unsubscribe()
	})
}

// Start subscribes to the collection. onUpdate receives the full rebuilt
// collection for every snapshot; onError receives a short description of a
// subscription failure, after which no further callbacks are made.
// Callbacks run on a store goroutine and must not block.
func (m *Mirror) Start(onUpdate func(models.Collection), onError func(string)) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{cancel: cancel}

	h.unsubscribe = m.coll.Subscribe(ctx,
		func(docs []store.Document) {
			tickets := toCollection(docs)

			h.mu.Lock()
			defer h.mu.Unlock()
			if h.stopped {
				return
			}
			m.logger.Debug().Int("tickets", tickets.Len()).Msg("snapshot received")
			onUpdate(tickets)
		},
		func(err error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if h.stopped {
				return
			}
			m.logger.Error().Err(err).Msg("subscription failed")
			onError(store.Describe(err))
		},
	)

	m.logger.Debug().Msg("mirroring started")
	return h
}

// Snapshot waits for the current state of the collection.
func (m *Mirror) Snapshot(ctx context.Context) (models.Collection, error) {
	type result struct {
		tickets models.Collection
		err     error
	}

	ch := make(chan result, 1)
	send := func(r result) {
		select {
		case ch <- r:
		default:
		}
	}

	unsubscribe := m.coll.Subscribe(ctx,
		func(docs []store.Document) { send(result{tickets: toCollection(docs)}) },
		func(err error) { send(result{err: err}) },
	)
	defer unsubscribe()

	select {
	case r := <-ch:
		if r.err != nil {
			return models.Collection{}, fmt.Errorf("failed to load tickets: %w", r.err)
		}
		return r.tickets, nil
	case <-ctx.Done():
		return models.Collection{}, ctx.Err()
	}
}

// CreateTicket inserts a new ticket and returns its ID. The mirror is not
// updated optimistically; the new ticket arrives with the next snapshot.
// Inserts are not retried since a retry after a lost reply would duplicate
// the ticket.
func (m *Mirror) CreateTicket(ctx context.Context, fields models.Fields) (string, error) {
	id, err := m.coll.Insert(ctx, fields.Map())
	if err != nil {
		m.logger.Warn().Err(err).Msg("create ticket failed")
		return "", fmt.Errorf("failed to create ticket: %w", err)
	}

	m.logger.Debug().Str("ticket_id", id).Msg("ticket created")
	return id, nil
}

// UpdateTicket overwrites the fields of ticket id. It fails with an error
// matching store.ErrNotFound when the ticket no longer exists.
func (m *Mirror) UpdateTicket(ctx context.Context, id string, fields models.Fields) error {
	logger := m.logger.With().Str("ticket_id", id).Logger()

	err := withRetry(ctx, m.attempts, m.backoff, func() error {
		return m.coll.Update(ctx, id, fields.Map())
	})
	if err != nil {
		logger.Warn().Err(err).Msg("update ticket failed")
		return fmt.Errorf("failed to update ticket %s: %w", id, err)
	}

	logger.Debug().Msg("ticket updated")
	return nil
}

// DeleteTicket removes ticket id from the collection.
func (m *Mirror) DeleteTicket(ctx context.Context, id string) error {
	logger := m.logger.With().Str("ticket_id", id).Logger()

	err := withRetry(ctx, m.attempts, m.backoff, func() error {
		return m.coll.Remove(ctx, id)
	})
	if err != nil {
		logger.Warn().Err(err).Msg("delete ticket failed")
		return fmt.Errorf("failed to delete ticket %s: %w", id, err)
	}

	logger.Debug().Msg("ticket deleted")
	return nil
}

// toCollection reshapes store documents into tickets, keeping snapshot
// order. Missing or non-string fields become empty strings.
func toCollection(docs []store.Document) models.Collection {
	tickets := make([]models.Ticket, 0, len(docs))
	for _, doc := range docs {
		tickets = append(tickets, models.Ticket{
			ID:       doc.ID,
			Names:    doc.String("names"),
			Location: doc.String("location"),
			Issue:    doc.String("issue"),
		})
	}
	return models.NewCollection(tickets)
}
