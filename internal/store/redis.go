package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// RedisOptions configures a Redis-backed collection.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	// Prefix namespaces every key and the change channel, usually the
	// collection name.
	Prefix string
}

// Redis stores each document as a hash, keeps arrival order in a sorted set
// and announces every write on a Pub/Sub channel. Subscribers reload the
// full collection on each announcement.
type Redis struct {
	client *redis.Client
	prefix string

	mu     sync.Mutex
	subs   map[*subscription]struct{}
	closed bool
}

var _ Collection = (*Redis)(nil)

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewRedis(client, opts.Prefix), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		subs:   make(map[*subscription]struct{}),
	}
}

func (r *Redis) docKey(id string) string { return r.prefix + ":doc:" + id }
func (r *Redis) orderKey() string        { return r.prefix + ":order" }
func (r *Redis) seqKey() string          { return r.prefix + ":seq" }
func (r *Redis) channel() string         { return r.prefix + ":changes" }

// Subscribe implements Collection.
func (r *Redis) Subscribe(ctx context.Context, onSnapshot func([]Document), onError func(error)) func() {
	sub, subCtx := newSubscription(ctx)

	r.mu.Lock()
	closed := r.closed
	if !closed {
		r.subs[sub] = struct{}{}
	}
	r.mu.Unlock()

	if closed {
		sub.box.put(event{err: NewStoreError(backendRedis, "subscribe", "", ErrClosed)})
	} else {
		go r.listen(subCtx, sub)
	}

	go sub.deliver(subCtx, onSnapshot, onError)

	return func() {
		r.mu.Lock()
		delete(r.subs, sub)
		r.mu.Unlock()
		sub.stop()
	}
}

// listen feeds sub with a snapshot on start and after every change
// announcement until ctx ends.
func (r *Redis) listen(ctx context.Context, sub *subscription) {
	pubsub := r.client.Subscribe(ctx, r.channel())
	defer func() { _ = pubsub.Close() }()

	fail := func(err error) {
		if ctx.Err() == nil {
			sub.box.put(event{err: r.wrap("listen", "", err)})
		}
	}

	// Wait for the subscription to be confirmed so no change published
	// after the initial load is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		fail(err)
		return
	}

	docs, err := r.load(ctx)
	if err != nil {
		fail(err)
		return
	}
	sub.box.put(event{docs: docs})

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-messages:
			if !ok {
				fail(ErrUnavailable)
				return
			}
			docs, err := r.load(ctx)
			if err != nil {
				fail(err)
				return
			}
			sub.box.put(event{docs: docs})
		}
	}
}

// Insert implements Collection.
func (r *Redis) Insert(ctx context.Context, fields map[string]any) (string, error) {
	if err := r.checkOpen("insert", ""); err != nil {
		return "", err
	}

	seq, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return "", r.wrap("insert", "", err)
	}

	id := uuid.NewString()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docKey(id), fields)
		pipe.ZAdd(ctx, r.orderKey(), redis.Z{Score: float64(seq), Member: id})
		pipe.Publish(ctx, r.channel(), id)
		return nil
	})
	if err != nil {
		return "", r.wrap("insert", "", err)
	}
	return id, nil
}

// Update implements Collection.
func (r *Redis) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.checkOpen("update", id); err != nil {
		return err
	}

	key := r.docKey(id)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fields)
			pipe.Publish(ctx, r.channel(), id)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return r.wrap("update", id, err)
	}
	return nil
}

// Remove implements Collection.
func (r *Redis) Remove(ctx context.Context, id string) error {
	if err := r.checkOpen("remove", id); err != nil {
		return err
	}

	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.docKey(id))
		pipe.ZRem(ctx, r.orderKey(), id)
		pipe.Publish(ctx, r.channel(), id)
		return nil
	})
	if err != nil {
		return r.wrap("remove", id, err)
	}
	if del.Val() == 0 {
		return NewStoreError(backendRedis, "remove", id, ErrNotFound)
	}
	return nil
}

// Close implements Collection.
func (r *Redis) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := make([]*subscription, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subs = make(map[*subscription]struct{})
	r.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return r.client.Close()
}

func (r *Redis) checkOpen(op, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return NewStoreError(backendRedis, op, id, ErrClosed)
	}
	return nil
}

// load reads the collection in arrival order. Documents removed between
// reading the order and reading the hashes are skipped.
func (r *Redis) load(ctx context.Context) ([]Document, error) {
	ids, err := r.client.ZRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.docKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(ids))
	for i, id := range ids {
		values := cmds[i].Val()
		if len(values) == 0 {
			continue
		}
		fields := make(map[string]any, len(values))
		for k, v := range values {
			fields[k] = v
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}
	return docs, nil
}

// wrap classifies a go-redis error into the store error taxonomy.
func (r *Redis) wrap(op, id string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnavailable):
	case errors.Is(err, redis.TxFailedErr), errors.As(err, &netErr):
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	case strings.HasPrefix(err.Error(), "NOPERM"), strings.HasPrefix(err.Error(), "NOAUTH"):
		err = fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return NewStoreError(backendRedis, op, id, err)
}
