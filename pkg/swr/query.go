package swr

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Decoder turns the raw bytes of an entry into the value a query exposes.
// Decoders must not modify raw.
type Decoder[T any] func(raw []byte) (T, error)

// State is what a query exposes to its consumer.
type State[T any] struct {
	// Data is the decoded response, or the zero T before the first
	// resolution. It may be stale whenever Err is set.
	Data T
	// Err is the last fetch error, or a decode error for the current data.
	Err error
	// IsLoading is true while a request for the key is in flight.
	IsLoading bool
	// HasData reports whether Data holds a decoded response.
	HasData bool
	// LastFetchedAt is the time of the last successful fetch or mutation.
	LastFetchedAt time.Time
}

// Query is a typed view on one store entry. It holds only the key and the
// store, so every read reflects the shared entry.
type Query[T any] struct {
	store  *Store
	key    string
	decode Decoder[T]

	mu     sync.Mutex
	subs   []int
	closed bool
}

// Use mounts a query on key. fetch becomes the entry's fetcher; decode maps
// raw bytes to T and defaults to json.Unmarshal. Mounting revalidates in the
// background unless disabled or deduplicated.
func Use[T any](ctx context.Context, store *Store, key string, fetch Fetcher, decode Decoder[T]) *Query[T] {
	if decode == nil {
		decode = func(raw []byte) (T, error) {
			var v T
			err := json.Unmarshal(raw, &v)
			return v, err
		}
	}
	q := &Query[T]{store: store, key: key, decode: decode}
	q.subs = append(q.subs, store.mount(ctx, key, fetch, nil))
	return q
}

// Key returns the fetch key.
func (q *Query[T]) Key() string { return q.key }

// State returns the current decoded state of the entry.
func (q *Query[T]) State() State[T] {
	e, _ := q.store.Get(q.key)
	return q.stateOf(e)
}

func (q *Query[T]) stateOf(e Entry) State[T] {
	st := State[T]{
		Err:           e.Err,
		IsLoading:     e.IsRevalidating,
		LastFetchedAt: e.LastFetchedAt,
	}
	if !e.HasData() {
		return st
	}
	data, err := q.decode(e.Data)
	if err != nil {
		if st.Err == nil {
			st.Err = err
		}
		return st
	}
	st.Data = data
	st.HasData = true
	return st
}

// Refetch forces revalidation of the key and waits for the shared result.
func (q *Query[T]) Refetch(ctx context.Context) error {
	return q.store.Refetch(ctx, q.key)
}

// Load returns the entry's state once it has settled: a request in flight
// is joined, and an entry without data is fetched. Cached data with no
// request in flight is returned as is. The returned error is State.Err.
func (q *Query[T]) Load(ctx context.Context) (State[T], error) {
	err := q.store.settle(ctx, q.key)
	st := q.State()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return st, ctxErr
		}
		if !st.HasData && st.Err == nil {
			st.Err = err
		}
	}
	return st, st.Err
}

// Mutate stores v as the entry's data. v is JSON-encoded, so it must decode
// back through the query's decoder.
func (q *Query[T]) Mutate(ctx context.Context, v T, revalidate bool) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return q.store.Mutate(ctx, q.key, raw, revalidate)
}

// Subscribe calls fn with the decoded state after every change to the
// entry. The returned function removes the subscription.
func (q *Query[T]) Subscribe(fn func(State[T])) func() {
	id := q.store.subscribe(q.key, func(e Entry) { fn(q.stateOf(e)) })

	q.mu.Lock()
	q.subs = append(q.subs, id)
	q.mu.Unlock()

	return func() { q.store.unsubscribe(q.key, id) }
}

// Close unmounts the query. The entry and its data stay in the store.
func (q *Query[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, id := range q.subs {
		q.store.unsubscribe(q.key, id)
	}
	q.subs = nil
}
