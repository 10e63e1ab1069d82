package panel

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/adminpanel/pkg/api"
	"github.com/matzehuels/adminpanel/pkg/hooks"
	"github.com/matzehuels/adminpanel/pkg/swr"
	"github.com/matzehuels/adminpanel/pkg/track"
)

// upstream fakes the admin API.
type upstream struct {
	mu       sync.Mutex
	bodies   map[string]string
	statuses map[string]int
	requests []*http.Request
	posted   map[string]string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	u.mu.Lock()
	u.requests = append(u.requests, r)
	if r.Method == http.MethodPost {
		u.posted[r.URL.Path] = string(body)
	}
	status, ok := u.statuses[r.URL.Path]
	resp := u.bodies[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}

func (u *upstream) lastQuery(path string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := len(u.requests) - 1; i >= 0; i-- {
		if u.requests[i].URL.Path == path {
			return u.requests[i].URL.RawQuery
		}
	}
	return ""
}

func (u *upstream) postedBody(path string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.posted[path]
}

type fixture struct {
	upstream *upstream
	tracker  *track.Tracker
	panel    *httptest.Server
}

func newFixture(t *testing.T, theme Theme) *fixture {
	t.Helper()
	up := &upstream{bodies: map[string]string{}, statuses: map[string]int{}, posted: map[string]string{}}
	apiServer := httptest.NewServer(up)
	t.Cleanup(apiServer.Close)

	client, err := api.NewClient(apiServer.URL, api.Options{HTTPClient: apiServer.Client()})
	require.NoError(t, err)

	store := swr.NewStore(swr.Options{DedupeInterval: -1})
	tracker := track.NewTracker(client, nil)
	srv := NewServer(Options{
		Hooks:   hooks.New(client, store, nil, nil),
		Tracker: tracker,
		Theme:   theme,
		BaseURL: apiServer.URL,
	})
	panel := httptest.NewServer(srv.Handler())
	t.Cleanup(panel.Close)
	t.Cleanup(store.Wait)

	return &fixture{upstream: up, tracker: tracker, panel: panel}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(f.panel.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (f *fixture) post(t *testing.T, path, contentType string, body []byte) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(f.panel.URL+path, contentType, bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, ThemeLight)
	resp, body := f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestStaticPages(t *testing.T) {
	f := newFixture(t, ThemeDark)

	for path, want := range map[string]string{
		"/":        "Admin Panel",
		"/about":   "About",
		"/offline": "You are offline",
	} {
		resp, body := f.get(t, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html", path)
		assert.Contains(t, string(body), want, path)
		assert.Contains(t, string(body), ThemeDark.Background, path)
	}
}

func TestContentStatsRoute(t *testing.T) {
	f := newFixture(t, ThemeLight)
	f.upstream.bodies[hooks.PathContentStats] = `{"data":{"total":4,"published":3,"drafts":1}}`

	resp, body := f.get(t, "/panel/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Data          hooks.ContentStats `json:"data"`
		Error         string             `json:"error"`
		IsLoading     bool               `json:"isLoading"`
		LastFetchedAt *time.Time         `json:"lastFetchedAt"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 4, got.Data.Total)
	assert.Empty(t, got.Error)
	assert.NotNil(t, got.LastFetchedAt)
}

func TestDisplayCardsRoute(t *testing.T) {
	f := newFixture(t, ThemeLight)
	f.upstream.bodies[hooks.PathDisplayCards] = `{"available":[{"id":1}],"linked":[]}`

	resp, body := f.get(t, "/panel/display-cards")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"available":[{"id":1}],"linked":[]}`, dataField(t, body))
}

func TestMediaRoute(t *testing.T) {
	f := newFixture(t, ThemeLight)
	f.upstream.bodies[hooks.PathMedia] = `[{"id":1,"url":"/a.png","type":"image"}]`

	resp, body := f.get(t, "/panel/media?type=image&limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":1,"url":"/a.png","type":"image"}]`, dataField(t, body))
	assert.Equal(t, "limit=5&type=image", f.upstream.lastQuery(hooks.PathMedia))

	resp, _ = f.get(t, "/panel/media?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.get(t, "/panel/media?type=a%26b")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryErrorWithoutData(t *testing.T) {
	f := newFixture(t, ThemeLight)
	f.upstream.statuses[hooks.PathPWAStats] = http.StatusInternalServerError

	resp, body := f.get(t, "/panel/pwa/stats")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), `"error"`)
}

func TestQueryErrorKeepsStaleData(t *testing.T) {
	f := newFixture(t, ThemeLight)
	f.upstream.bodies[hooks.PathPWAStats] = `{"subscribers":9}`

	resp, _ := f.get(t, "/panel/pwa/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f.upstream.mu.Lock()
	f.upstream.statuses[hooks.PathPWAStats] = http.StatusServiceUnavailable
	f.upstream.mu.Unlock()

	resp, body := f.get(t, "/panel/pwa/stats?refresh=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"subscribers":9`)
	assert.Contains(t, string(body), `"error"`)
}

func TestBroadcastRoute(t *testing.T) {
	f := newFixture(t, ThemeLight)
	f.upstream.bodies[hooks.PathPushBroadcast] = `{"sent":2,"failed":1}`

	resp, body := f.post(t, "/panel/pwa/broadcast", "application/json", []byte(`{"title":"Hi","body":"There"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"sent":2,"failed":1}`, string(body))
	assert.JSONEq(t, `{"title":"Hi","body":"There"}`, f.upstream.postedBody(hooks.PathPushBroadcast))
}

func TestBroadcastRouteFailure(t *testing.T) {
	f := newFixture(t, ThemeLight)
	f.upstream.statuses[hooks.PathPushBroadcast] = http.StatusForbidden

	resp, body := f.post(t, "/panel/pwa/broadcast", "application/json", []byte(`{"title":"Hi"}`))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "FORBIDDEN")

	resp, _ = f.post(t, "/panel/pwa/broadcast", "application/json", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrackRoute(t *testing.T) {
	f := newFixture(t, ThemeLight)

	resp, _ := f.post(t, "/panel/track", "application/json", []byte(`{"category":"article","id":42}`))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	f.tracker.Wait()
	assert.Equal(t, `{"category":"article","id":42}`, f.upstream.postedBody(track.IncrementPath))

	resp, _ = f.post(t, "/panel/track", "application/json", []byte(`{"category":"Blog Post","id":7}`))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	f.tracker.Wait()
	assert.Equal(t, `{"category":"Blog Post","id":7}`, f.upstream.postedBody(track.IncrementPath))

	resp, _ = f.post(t, "/panel/track", "application/json", []byte(`{"category":" ","id":1}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompressRouteFallsBack(t *testing.T) {
	f := newFixture(t, ThemeLight)
	in := []byte("not an image at all")

	resp, body := f.post(t, "/panel/compress", "application/octet-stream", in)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, in, body)
	assert.Equal(t, resp.Header.Get("X-Original-Size"), resp.Header.Get("X-Compressed-Size"))

	resp, _ = f.post(t, "/panel/compress", "application/octet-stream", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := NewServer(Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func dataField(t *testing.T, body []byte) string {
	t.Helper()
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &env))
	return strings.TrimSpace(string(env["data"]))
}
