package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/adminpanel/internal/config"
	"github.com/matzehuels/adminpanel/pkg/cache"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runRoot(t *testing.T, args ...string) (*CLI, error) {
	t.Helper()
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return c, root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	for _, name := range []string{"stats", "cards", "pwa", "media", "track", "compress", "dashboard", "serve", "about", "cache", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCommandStats(t *testing.T) {
	fake := &adminAPI{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := writeConfig(t, "[cache]\nbackend = \"memory\"\n")
	c, err := runRoot(t, "--config", cfg, "--base-url", srv.URL, "stats", "--json")
	require.NoError(t, err)
	assert.Equal(t, srv.URL, c.settings().BaseURL)
	assert.Positive(t, fake.hits.Load())
}

func TestRootCommandTrack(t *testing.T) {
	fake := &adminAPI{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := writeConfig(t, "[cache]\nbackend = \"none\"\n")
	_, err := runRoot(t, "--config", cfg, "--base-url", srv.URL, "track", "article", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(1), fake.hits.Load())
}

func TestRootCommandNoCacheFlag(t *testing.T) {
	cfg := writeConfig(t, "[cache]\nbackend = \"file\"\n")
	c, err := runRoot(t, "--config", cfg, "--no-cache", "about")
	require.NoError(t, err)
	assert.Equal(t, config.BackendNone, c.settings().Cache.Backend)
}

func TestRootCommandBadConfig(t *testing.T) {
	cfg := writeConfig(t, "base_url = [\n")
	_, err := runRoot(t, "--config", cfg, "about")
	assert.Error(t, err)
}

func TestOpenBackend(t *testing.T) {
	tests := []struct {
		backend string
		want    any
	}{
		{config.BackendNone, cache.NewNullCache()},
		{config.BackendMemory, &cache.MemoryCache{}},
		{config.BackendFile, &cache.FileCache{}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c := New(&bytes.Buffer{}, LogInfo)
			c.cfg = config.Default()
			c.cfg.Cache.Backend = tt.backend
			c.cfg.Cache.Dir = t.TempDir()

			b, err := c.openBackend(context.Background())
			require.NoError(t, err)
			defer b.Close()
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestCLICacheDirFromConfig(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.cfg = config.Default()
	c.cfg.Cache.Dir = "/srv/adminpanel-cache"

	dir, err := c.cacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/srv/adminpanel-cache", dir)
}

func TestNewSessionScopesKeysByBaseURL(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.cfg = config.Default()
	c.cfg.BaseURL = "https://cms.example.com/api"
	c.cfg.Cache.Backend = config.BackendMemory

	s, err := c.newSession(context.Background())
	require.NoError(t, err)
	defer s.Close()

	key := s.hooks.Key("/admin/contents/stats", nil)
	assert.Contains(t, key, "https://cms.example.com/api|")
}
