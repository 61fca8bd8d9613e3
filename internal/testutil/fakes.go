package testutil

import (
	"context"
	"sync"

	"github.com/mobil-koeln/tickets/internal/models"
	"github.com/mobil-koeln/tickets/internal/store"
)

// Call records one mutation made through FakeMutator
type Call struct {
	Op     string // create, update or delete
	ID     string
	Fields models.Fields
}

// FakeMutator records ticket mutations and returns configured results
type FakeMutator struct {
	mu    sync.Mutex
	calls []Call

	NextID    string
	CreateErr error
	UpdateErr error
	DeleteErr error
}

// NewFakeMutator creates a mutator whose calls all succeed
func NewFakeMutator() *FakeMutator {
	return &FakeMutator{NextID: "new-ticket"}
}

// CreateTicket records a create call
func (f *FakeMutator) CreateTicket(_ context.Context, fields models.Fields) (string, error) {
	f.record(Call{Op: "create", Fields: fields})
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	return f.NextID, nil
}

// UpdateTicket records an update call
func (f *FakeMutator) UpdateTicket(_ context.Context, id string, fields models.Fields) error {
	f.record(Call{Op: "update", ID: id, Fields: fields})
	return f.UpdateErr
}

// DeleteTicket records a delete call
func (f *FakeMutator) DeleteTicket(_ context.Context, id string) error {
	f.record(Call{Op: "delete", ID: id})
	return f.DeleteErr
}

func (f *FakeMutator) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// LastCall returns the most recent call
func (f *FakeMutator) LastCall() (Call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Call{}, false
	}
	return f.calls[len(f.calls)-1], true
}

// CallCount returns the number of calls received
func (f *FakeMutator) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Reset clears the call history
func (f *FakeMutator) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// FlakyCollection wraps a collection and fails writes with queued errors
// before passing them through.
type FlakyCollection struct {
	store.Collection

	mu         sync.Mutex
	insertErrs []error
	updateErrs []error
	removeErrs []error
	attempts   map[string]int
}

// NewFlakyCollection wraps inner.
func NewFlakyCollection(inner store.Collection) *FlakyCollection {
	return &FlakyCollection{
		Collection: inner,
		attempts:   make(map[string]int),
	}
}

// FailInsert queues errors for the next Insert calls
func (f *FlakyCollection) FailInsert(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertErrs = append(f.insertErrs, errs...)
}

// FailUpdate queues errors for the next Update calls
func (f *FlakyCollection) FailUpdate(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateErrs = append(f.updateErrs, errs...)
}

// FailRemove queues errors for the next Remove calls
func (f *FlakyCollection) FailRemove(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeErrs = append(f.removeErrs, errs...)
}

// Attempts returns how often op (insert, update, remove) was called
func (f *FlakyCollection) Attempts(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[op]
}

// Insert implements store.Collection
func (f *FlakyCollection) Insert(ctx context.Context, fields map[string]any) (string, error) {
	if err := f.next("insert", &f.insertErrs); err != nil {
		return "", err
	}
	return f.Collection.Insert(ctx, fields)
}

// Update implements store.Collection
func (f *FlakyCollection) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := f.next("update", &f.updateErrs); err != nil {
		return err
	}
	return f.Collection.Update(ctx, id, fields)
}

// Remove implements store.Collection
func (f *FlakyCollection) Remove(ctx context.Context, id string) error {
	if err := f.next("remove", &f.removeErrs); err != nil {
		return err
	}
	return f.Collection.Remove(ctx, id)
}

func (f *FlakyCollection) next(op string, queue *[]error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[op]++
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}
