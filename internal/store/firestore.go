package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const backendFirestore = "firestore"

// FirestoreOptions configures a Firestore-backed collection.
type FirestoreOptions struct {
	ProjectID string
	// CredentialsFile is a service account key; empty uses application
	// default credentials. FIRESTORE_EMULATOR_HOST is honoured by the client.
	CredentialsFile string
	Collection      string
}

// Firestore is a collection hosted in Cloud Firestore, using query snapshot
// listeners for push notifications.
type Firestore struct {
	client *firestore.Client
	coll   *firestore.CollectionRef

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

var _ Collection = (*Firestore)(nil)

// OpenFirestore creates a Firestore client for the configured project.
func OpenFirestore(ctx context.Context, opts FirestoreOptions) (*Firestore, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &Firestore{
		client: client,
		coll:   client.Collection(opts.Collection),
		subs:   make(map[*subscription]struct{}),
	}, nil
}

// Subscribe implements Collection.
func (f *Firestore) Subscribe(ctx context.Context, onSnapshot func([]Document), onError func(error)) func() {
	sub, subCtx := newSubscription(ctx)

	f.mu.Lock()
	closed := f.closed
	if !closed {
		f.subs[sub] = struct{}{}
	}
	f.mu.Unlock()

	if closed {
		sub.box.put(event{err: NewStoreError(backendFirestore, "subscribe", "", ErrClosed)})
	} else {
		go f.listen(subCtx, sub)
	}

	go sub.deliver(subCtx, onSnapshot, onError)

	return func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
		sub.stop()
	}
}

func (f *Firestore) listen(ctx context.Context, sub *subscription) {
	it := f.coll.Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, iterator.Done) {
				sub.box.put(event{err: f.wrap("listen", "", err)})
			}
			return
		}

		docs, err := snap.Documents.GetAll()
		if err != nil {
			if ctx.Err() == nil {
				sub.box.put(event{err: f.wrap("listen", "", err)})
			}
			return
		}

		out := make([]Document, 0, len(docs))
		for _, d := range docs {
			out = append(out, Document{ID: d.Ref.ID, Fields: d.Data()})
		}
		sub.box.put(event{docs: out})
	}
}

// Insert implements Collection.
func (f *Firestore) Insert(ctx context.Context, fields map[string]any) (string, error) {
	if err := f.checkOpen("insert", ""); err != nil {
		return "", err
	}

	ref, _, err := f.coll.Add(ctx, fields)
	if err != nil {
		return "", f.wrap("insert", "", err)
	}
	return ref.ID, nil
}

// Update implements Collection.
func (f *Firestore) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := f.checkOpen("update", id); err != nil {
		return err
	}

	paths := make([]string, 0, len(fields))
	for k := range fields {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	updates := make([]firestore.Update, 0, len(paths))
	for _, p := range paths {
		updates = append(updates, firestore.Update{Path: p, Value: fields[p]})
	}

	if _, err := f.coll.Doc(id).Update(ctx, updates); err != nil {
		return f.wrap("update", id, err)
	}
	return nil
}

// Remove implements Collection.
func (f *Firestore) Remove(ctx context.Context, id string) error {
	if err := f.checkOpen("remove", id); err != nil {
		return err
	}

	if _, err := f.coll.Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return f.wrap("remove", id, err)
	}
	return nil
}

// Close implements Collection.
func (f *Firestore) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	subs := make([]*subscription, 0, len(f.subs))
	for sub := range f.subs {
		subs = append(subs, sub)
	}
	f.subs = make(map[*subscription]struct{})
	f.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return f.client.Close()
}

func (f *Firestore) checkOpen(op, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return NewStoreError(backendFirestore, op, id, ErrClosed)
	}
	return nil
}

// wrap maps gRPC status codes onto the store error taxonomy.
func (f *Firestore) wrap(op, id string, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		err = fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.PermissionDenied, codes.Unauthenticated:
		err = fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return NewStoreError(backendFirestore, op, id, err)
}
