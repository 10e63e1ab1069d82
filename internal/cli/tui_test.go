package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/adminpanel/pkg/api"
	"github.com/matzehuels/adminpanel/pkg/cache"
	"github.com/matzehuels/adminpanel/pkg/hooks"
	"github.com/matzehuels/adminpanel/pkg/swr"
)

type adminAPI struct {
	hits atomic.Int64
}

func (a *adminAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.hits.Add(1)
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case hooks.PathContentStats:
		_, _ = w.Write([]byte(`{"data":{"total":7,"published":5,"drafts":2,"views":120}}`))
	case hooks.PathPWAStats:
		_, _ = w.Write([]byte(`{"stats":{"subscribers":11,"installs":4,"broadcasts":1}}`))
	case hooks.PathDisplayCards:
		_, _ = w.Write([]byte(`{"available":[{"id":1},{"id":2}],"linked":[{"id":3}]}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestDashboard(t *testing.T) (*DashboardModel, *adminAPI) {
	t.Helper()
	fake := &adminAPI{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, api.Options{})
	require.NoError(t, err)
	store := swr.NewStore(swr.Options{Backend: cache.NewMemoryCache()})
	t.Cleanup(store.Wait)

	ctx := context.Background()
	m := newDashboardModel(ctx, hooks.New(client, store, nil, nil), 0)
	t.Cleanup(m.Close)

	_, err = m.stats.Load(ctx)
	require.NoError(t, err)
	_, err = m.pwa.Load(ctx)
	require.NoError(t, err)
	_, err = m.cards.Load(ctx)
	require.NoError(t, err)
	return m, fake
}

func TestDashboardView(t *testing.T) {
	m, _ := newTestDashboard(t)

	view := m.View()
	for _, want := range []string{"Content", "PWA", "Display cards", "120", "11", "Linked", "Available"} {
		assert.Contains(t, view, want)
	}
	assert.NotContains(t, view, "loading...")
}

func TestDashboardQuit(t *testing.T) {
	m, _ := newTestDashboard(t)

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestDashboardRefresh(t *testing.T) {
	m, fake := newTestDashboard(t)
	before := fake.hits.Load()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, m.refreshing)
	assert.Contains(t, m.View(), "refreshing")

	// A second press while refreshing is ignored.
	_, again := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, again)

	msg := cmd()
	require.IsType(t, refreshedMsg{}, msg)
	assert.NoError(t, msg.(refreshedMsg).err)
	assert.Equal(t, before+3, fake.hits.Load())

	m.Update(msg)
	assert.False(t, m.refreshing)
}

func TestDashboardBlurPausesTicks(t *testing.T) {
	m, fake := newTestDashboard(t)

	m.Update(tea.BlurMsg{})
	assert.False(t, m.focused)
	assert.Contains(t, m.View(), "paused")

	before := fake.hits.Load()
	m.Update(tickMsg{})
	m.store.Wait()
	assert.Equal(t, before, fake.hits.Load())

	_, cmd := m.Update(tea.FocusMsg{})
	assert.True(t, m.focused)
	require.NotNil(t, cmd)
	cmd()
}

func TestDashboardTickDisabled(t *testing.T) {
	m, _ := newTestDashboard(t)
	assert.Nil(t, m.Init())
}

func TestDashboardSubscribe(t *testing.T) {
	m, _ := newTestDashboard(t)

	var calls atomic.Int64
	m.Subscribe(func() { calls.Add(1) })
	require.NoError(t, m.stats.Refetch(context.Background()))
	require.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, 10*time.Millisecond)
}

func TestRenderPanelStates(t *testing.T) {
	loading := renderPanel("X", true, false, nil, nil)
	assert.Contains(t, loading, "loading...")

	failed := renderPanel("X", false, false, assertErr("boom"), nil)
	assert.Contains(t, failed, "boom")

	stale := renderPanel("X", false, true, assertErr("offline"), [][2]string{{"Total", "3"}})
	assert.True(t, strings.Contains(stale, "stale") && strings.Contains(stale, "3"))
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
