// Package track sends best-effort view-tracking events.
//
// A [Beacon] is bound to one mount of a (category, id) pair. Activating it
// posts the event exactly once in the background; failures are logged and
// reported to the observability hooks, never returned and never retried.
package track

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/observability"
)

// IncrementPath is the endpoint tracking events are posted to.
const IncrementPath = "/api/increment"

// Event is a single view of an item.
type Event struct {
	Category string `json:"category"`
	ID       any    `json:"id"`
}

// Poster sends a JSON body. *api.Client satisfies it.
type Poster interface {
	Post(ctx context.Context, path string, body, v any) error
}

// Beacon posts its event at most once.
type Beacon struct {
	poster Poster
	event  Event
	logger *log.Logger

	once sync.Once
	sent atomic.Bool
	wg   sync.WaitGroup
}

// NewBeacon creates an unsent beacon. A nil logger uses log.Default().
func NewBeacon(poster Poster, ev Event, logger *log.Logger) *Beacon {
	if logger == nil {
		logger = log.Default()
	}
	return &Beacon{poster: poster, event: ev, logger: logger}
}

// Event returns the beacon's event.
func (b *Beacon) Event() Event { return b.event }

// Activate moves the beacon from unsent to sent and posts the event on a
// background goroutine. Later calls do nothing. Cancelling ctx after
// Activate returns does not abort the post.
func (b *Beacon) Activate(ctx context.Context) {
	b.once.Do(func() {
		b.sent.Store(true)
		if err := apperrors.ValidateCategory(b.event.Category); err != nil {
			b.fail(ctx, err)
			return
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.post(context.WithoutCancel(ctx))
		}()
	})
}

// Sent reports whether Activate has been called.
func (b *Beacon) Sent() bool { return b.sent.Load() }

// Wait blocks until the post started by Activate has finished.
func (b *Beacon) Wait() { b.wg.Wait() }

func (b *Beacon) post(ctx context.Context) {
	start := time.Now()
	if err := b.poster.Post(ctx, IncrementPath, b.event, nil); err != nil {
		b.fail(ctx, err)
		return
	}
	observability.Beacon().OnBeaconSent(ctx, b.event.Category, time.Since(start))
	b.logger.Debug("tracked view", "category", b.event.Category, "id", b.event.ID)
}

func (b *Beacon) fail(ctx context.Context, err error) {
	b.logger.Warn("tracking beacon failed", "category", b.event.Category, "id", b.event.ID, "error", err)
	observability.Beacon().OnBeaconError(ctx, b.event.Category, err)
}

// Tracker mounts beacons and remembers them so a process can drain
// outstanding posts before exiting.
type Tracker struct {
	poster Poster
	logger *log.Logger

	mu      sync.Mutex
	beacons []*Beacon
}

// NewTracker creates a Tracker. A nil logger uses log.Default().
func NewTracker(poster Poster, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{poster: poster, logger: logger}
}

// Mount creates a beacon for ev and activates it.
func (t *Tracker) Mount(ctx context.Context, ev Event) *Beacon {
	b := NewBeacon(t.poster, ev, t.logger)
	t.mu.Lock()
	t.beacons = append(t.beacons, b)
	t.mu.Unlock()
	b.Activate(ctx)
	return b
}

// Wait blocks until every mounted beacon has finished posting.
func (t *Tracker) Wait() {
	t.mu.Lock()
	beacons := t.beacons
	t.beacons = nil
	t.mu.Unlock()
	for _, b := range beacons {
		b.Wait()
	}
}
