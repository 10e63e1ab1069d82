package swr

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/adminpanel/pkg/cache"
	"github.com/matzehuels/adminpanel/pkg/observability"
)

// DefaultDedupeInterval is the window after a successful fetch during which
// mount and focus triggers do not revalidate.
const DefaultDedupeInterval = 2 * time.Second

// ErrNoFetcher is returned when a key is revalidated before any query
// registered a fetch function for it.
var ErrNoFetcher = errors.New("swr: no fetcher registered for key")

// Fetcher retrieves the raw response for a key.
type Fetcher func(ctx context.Context) ([]byte, error)

// Entry is a snapshot of the cached state for one key. Data is shared with
// the store and must not be modified.
type Entry struct {
	Key            string
	Data           []byte
	Err            error
	LastFetchedAt  time.Time
	IsRevalidating bool
}

// HasData reports whether the entry holds a response, fresh or stale.
func (e Entry) HasData() bool { return e.Data != nil }

// Options configures a Store.
type Options struct {
	// DedupeInterval suppresses mount and focus revalidation for keys fetched
	// more recently than this. Zero uses DefaultDedupeInterval; a negative
	// value disables deduplication by time (in-flight coalescing still applies).
	DedupeInterval time.Duration

	// DisableMountRevalidation stops Use from revalidating on mount.
	DisableMountRevalidation bool

	// DisableFocusRevalidation turns Focus into a no-op.
	DisableFocusRevalidation bool

	// Backend persists successful responses across processes. Nil disables
	// persistence.
	Backend cache.Cache

	// TTL is passed to Backend.Set. Zero means entries never expire.
	TTL time.Duration

	// Logger receives debug and warning output; nil uses log.Default().
	Logger *log.Logger
}

type entry struct {
	data      []byte
	err       error
	fetchedAt time.Time
	flight    *flight
	fetcher   Fetcher
	subs      map[int]func(Entry)
}

// flight is one fetch in progress for a key. err is set before done is
// closed. waiters counts the callers that started or joined it.
type flight struct {
	done    chan struct{}
	err     error
	waiters int
}

func (f *flight) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *entry) snapshot(key string) Entry {
	return Entry{
		Key:            key,
		Data:           e.data,
		Err:            e.err,
		LastFetchedAt:  e.fetchedAt,
		IsRevalidating: e.flight != nil,
	}
}

// Store is a concurrency-safe stale-while-revalidate cache keyed by fetch key.
type Store struct {
	opts   Options
	logger *log.Logger
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	nextSub int

	wg sync.WaitGroup
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	if opts.DedupeInterval == 0 {
		opts.DedupeInterval = DefaultDedupeInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		opts:    opts,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Get returns a snapshot of the entry for key.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return Entry{Key: key}, false
	}
	return e.snapshot(key), true
}

// Keys returns the known keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	slices.Sort(keys)
	return keys
}

// Revalidate starts a background fetch for key, joining any fetch already in
// flight. It returns without waiting for the result.
func (s *Store) Revalidate(ctx context.Context, key string) error {
	_, err := s.join(ctx, key, true)
	return err
}

// Refetch forces a fetch for key and waits for the shared result. Calls made
// while a fetch is in flight join it instead of issuing another request.
// Cancelling ctx stops the wait but not the fetch.
func (s *Store) Refetch(ctx context.Context, key string) error {
	f, err := s.join(ctx, key, true)
	if err != nil {
		return err
	}
	return f.wait(ctx)
}

// settle waits for the request in flight for key, or fetches when the entry
// has no data yet. Cached data with nothing in flight returns at once.
func (s *Store) settle(ctx context.Context, key string) error {
	f, err := s.join(ctx, key, false)
	if err != nil || f == nil {
		return err
	}
	return f.wait(ctx)
}

// Mutate replaces the data for key, clears its error and persists it. With
// revalidate set, a background fetch follows so the server's view wins
// eventually. Keys without a mounted query are only written.
func (s *Store) Mutate(ctx context.Context, key string, data []byte, revalidate bool) error {
	s.mu.Lock()
	e := s.entryLocked(key)
	e.data = slices.Clone(data)
	e.err = nil
	e.fetchedAt = time.Now()
	mounted := e.fetcher != nil
	s.mu.Unlock()

	s.persist(ctx, key, data)
	s.notify(key)

	if revalidate && mounted {
		return s.Revalidate(ctx, key)
	}
	return nil
}

// Focus revalidates every key that has live subscribers and is outside the
// dedupe window. It returns the number of keys revalidated.
func (s *Store) Focus(ctx context.Context) int {
	if s.opts.DisableFocusRevalidation {
		return 0
	}
	s.mu.Lock()
	var keys []string
	for key, e := range s.entries {
		if len(e.subs) > 0 && e.fetcher != nil && s.staleLocked(e) {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	slices.Sort(keys)
	for _, key := range keys {
		s.logger.Debug("focus revalidate", "key", key)
		_ = s.Revalidate(ctx, key)
	}
	return len(keys)
}

// Delete evicts key locally and from the backend. Live queries on the key
// see an empty entry and must be mounted again before they can refetch.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	if s.opts.Backend == nil {
		return nil
	}
	return s.opts.Backend.Delete(ctx, cache.StorageKey(key))
}

// Clear evicts every key.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range s.Keys() {
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until all background fetches started so far have finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

// mount registers fetch for key, subscribes fn and returns the subscription
// id. The entry is created and warm-started from the backend if needed.
func (s *Store) mount(ctx context.Context, key string, fetch Fetcher, fn func(Entry)) int {
	s.mu.Lock()
	_, existed := s.entries[key]
	e := s.entryLocked(key)
	e.fetcher = fetch
	id := s.subscribeLocked(e, fn)
	s.mu.Unlock()

	if !existed {
		s.warm(ctx, key)
	}

	s.mu.Lock()
	e = s.entryLocked(key)
	hit := e.data != nil
	revalidate := !s.opts.DisableMountRevalidation && e.flight == nil && s.staleLocked(e)
	s.mu.Unlock()

	if hit {
		observability.Cache().OnCacheHit(ctx, key)
	} else {
		observability.Cache().OnCacheMiss(ctx, key)
	}
	if revalidate {
		_ = s.Revalidate(ctx, key)
	}
	return id
}

func (s *Store) subscribe(key string, fn func(Entry)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeLocked(s.entryLocked(key), fn)
}

func (s *Store) subscribeLocked(e *entry, fn func(Entry)) int {
	id := s.nextSub
	s.nextSub++
	e.subs[id] = fn
	return id
}

func (s *Store) unsubscribe(key string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		delete(e.subs, id)
	}
}

// warm loads stale data for key from the backend. Data already present
// (from a concurrent fetch or mutation) is kept.
func (s *Store) warm(ctx context.Context, key string) {
	if s.opts.Backend == nil {
		return
	}
	data, ok, err := s.opts.Backend.Get(ctx, cache.StorageKey(key))
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
		return
	}
	if !ok {
		return
	}
	s.mu.Lock()
	e := s.entryLocked(key)
	loaded := e.data == nil
	if loaded {
		e.data = data
	}
	s.mu.Unlock()
	if loaded {
		s.logger.Debug("warm start", "key", key, "bytes", len(data))
		s.notify(key)
	}
}

// join returns the flight for key, starting one when nothing is in flight.
// Without force, an entry that already holds data is left alone and join
// returns a nil flight.
func (s *Store) join(ctx context.Context, key string, force bool) (*flight, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && e.flight != nil {
		f := e.flight
		f.waiters++
		s.mu.Unlock()
		return f, nil
	}
	if ok && !force && e.data != nil {
		s.mu.Unlock()
		return nil, nil
	}
	if !ok || e.fetcher == nil {
		s.mu.Unlock()
		return nil, ErrNoFetcher
	}
	f := &flight{done: make(chan struct{}), waiters: 1}
	e.flight = f
	fetch := e.fetcher
	s.mu.Unlock()
	s.notify(key)

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		v, err, _ := s.group.Do(key, func() (any, error) {
			return s.fetch(bg, key, fetch)
		})
		data, _ := v.([]byte)
		s.complete(bg, key, f, data, err)
	}()
	return f, nil
}

func (s *Store) fetch(ctx context.Context, key string, fetch Fetcher) ([]byte, error) {
	started := time.Now()
	data, err := fetch(ctx)
	observability.Cache().OnRevalidate(ctx, key, time.Since(started), err)
	if err != nil {
		s.logger.Debug("revalidate failed", "key", key, "error", err)
		return nil, err
	}
	s.logger.Debug("revalidated", "key", key, "bytes", len(data), "took", time.Since(started))
	return data, nil
}

// complete records the result of f. The flight is cleared under the same
// lock that writes data and err, so no reader sees a settled entry that is
// still marked as revalidating.
func (s *Store) complete(ctx context.Context, key string, f *flight, data []byte, err error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		if err != nil {
			e.err = err
		} else {
			e.data = data
			e.err = nil
			e.fetchedAt = time.Now()
		}
		if e.flight == f {
			e.flight = nil
		}
	}
	f.err = err
	s.mu.Unlock()
	close(f.done)

	if ok && err == nil {
		s.persist(ctx, key, data)
	}
	s.notify(key)
}

func (s *Store) persist(ctx context.Context, key string, data []byte) {
	if s.opts.Backend == nil {
		return
	}
	if err := s.opts.Backend.Set(ctx, cache.StorageKey(key), data, s.opts.TTL); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// notify calls every subscriber of key with a fresh snapshot. Callbacks run
// on the goroutine that changed the entry, outside the store lock.
func (s *Store) notify(key string) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	snap := e.snapshot(key)
	fns := make([]func(Entry), 0, len(e.subs))
	for _, fn := range e.subs {
		if fn != nil {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) entryLocked(key string) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{subs: make(map[int]func(Entry))}
		s.entries[key] = e
	}
	return e
}

// staleLocked reports whether e is outside the dedupe window.
func (s *Store) staleLocked(e *entry) bool {
	if e.fetchedAt.IsZero() || s.opts.DedupeInterval < 0 {
		return true
	}
	return time.Since(e.fetchedAt) >= s.opts.DedupeInterval
}
