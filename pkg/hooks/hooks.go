// Package hooks exposes one typed query per admin API endpoint.
//
// Every hook follows the same pattern: derive a fetch key from the path and
// parameters, mount an [swr.Query] whose fetcher calls the API, and decode
// the cached raw body through [envelope] into the endpoint's type. The store
// keeps raw bytes; normalisation only happens in the decoders here.
package hooks

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/adminpanel/pkg/cache"
	"github.com/matzehuels/adminpanel/pkg/envelope"
	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/swr"
)

// API paths.
const (
	PathContentStats  = "/admin/contents/stats"
	PathDisplayCards  = "/admin/display-cards/available"
	PathPWAStats      = "/pwa/stats"
	PathPushBroadcast = "/pwa/push-broadcast"
	PathMedia         = "/admin/media"
)

// DefaultMediaLimit is used when Media is called with a zero limit.
const DefaultMediaLimit = 50

// Fetcher is the subset of the API client the hooks need.
type Fetcher interface {
	GetRaw(ctx context.Context, path string, params url.Values) ([]byte, error)
	PostRaw(ctx context.Context, path string, body any) ([]byte, error)
}

// Hooks binds an API client to a store.
type Hooks struct {
	api    Fetcher
	store  *swr.Store
	keyer  cache.Keyer
	logger *log.Logger
}

// New creates Hooks. A nil keyer uses cache.DefaultKeyer and a nil logger
// uses log.Default().
func New(api Fetcher, store *swr.Store, keyer cache.Keyer, logger *log.Logger) *Hooks {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Hooks{api: api, store: store, keyer: keyer, logger: logger}
}

// Store returns the underlying store.
func (h *Hooks) Store() *swr.Store { return h.store }

// Key returns the fetch key for a GET of path with params.
func (h *Hooks) Key(path string, params url.Values) string {
	return h.keyer.QueryKey(path, params)
}

// ContentStats mounts a query on the content statistics.
func (h *Hooks) ContentStats(ctx context.Context) *swr.Query[ContentStats] {
	return use(ctx, h, PathContentStats, nil, decodeStats[ContentStats])
}

// AvailableDisplayCards mounts a query on the display-card groups.
func (h *Hooks) AvailableDisplayCards(ctx context.Context) *swr.Query[DisplayCards] {
	return use(ctx, h, PathDisplayCards, nil, decodeDisplayCards)
}

// PWAStats mounts a query on the PWA statistics.
func (h *Hooks) PWAStats(ctx context.Context) *swr.Query[PWAStats] {
	return use(ctx, h, PathPWAStats, nil, decodeStats[PWAStats])
}

// Media mounts a query on the media library filtered by kind. An empty kind
// lists every type and a zero limit uses DefaultMediaLimit.
func (h *Hooks) Media(ctx context.Context, kind string, limit int) (*swr.Query[[]MediaItem], error) {
	if err := apperrors.ValidateMediaType(kind); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultMediaLimit
	}
	if err := apperrors.ValidateLimit(limit); err != nil {
		return nil, err
	}
	return use(ctx, h, PathMedia, MediaParams(kind, limit), decodeMedia), nil
}

// MediaParams builds the query parameters for a media listing.
func MediaParams(kind string, limit int) url.Values {
	params := url.Values{"limit": {strconv.Itoa(limit)}}
	if kind != "" {
		params.Set("type", kind)
	}
	return params
}

// BroadcastPush sends payload to every push subscriber. Unlike the queries,
// its error is returned to the caller. On success the PWA statistics are
// revalidated in the background.
func (h *Hooks) BroadcastPush(ctx context.Context, payload any) (*BroadcastResult, error) {
	raw, err := h.api.PostRaw(ctx, PathPushBroadcast, payload)
	if err != nil {
		return nil, err
	}

	key := h.Key(PathPWAStats, nil)
	if err := h.store.Revalidate(ctx, key); err != nil && !errors.Is(err, swr.ErrNoFetcher) {
		h.logger.Warn("revalidate after broadcast", "key", key, "error", err)
	}

	res, err := envelope.As[BroadcastResult](raw, envelope.KindData, envelope.KindBare)
	if err != nil {
		h.logger.Debug("broadcast response not understood", "error", err)
		return &BroadcastResult{}, nil
	}
	return &res, nil
}

func use[T any](ctx context.Context, h *Hooks, path string, params url.Values, decode swr.Decoder[T]) *swr.Query[T] {
	fetch := func(ctx context.Context) ([]byte, error) {
		return h.api.GetRaw(ctx, path, params)
	}
	return swr.Use(ctx, h.store, h.Key(path, params), fetch, decode)
}

func decodeStats[T any](raw []byte) (T, error) {
	return envelope.As[T](raw, envelope.KindData, envelope.KindStats, envelope.KindBare)
}

func decodeDisplayCards(raw []byte) (DisplayCards, error) {
	g, err := envelope.Groups[DisplayCard](raw)
	return DisplayCards{Available: g.Available, Linked: g.Linked}, err
}

func decodeMedia(raw []byte) ([]MediaItem, error) {
	items, err := envelope.As[[]MediaItem](raw, envelope.KindData, envelope.KindBare)
	if items == nil {
		items = []MediaItem{}
	}
	return items, err
}
