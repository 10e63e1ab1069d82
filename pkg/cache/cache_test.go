package cache

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestStorageKey(t *testing.T) {
	k1 := StorageKey("/admin/media?limit=20&type=image")
	k2 := StorageKey("/admin/media?limit=20&type=image")
	k3 := StorageKey("/admin/media?limit=20&type=video")

	if k1 != k2 {
		t.Error("StorageKey should be deterministic")
	}
	if k1 == k3 {
		t.Error("different fetch keys should produce different storage keys")
	}
	if !strings.HasPrefix(k1, "swr:") {
		t.Errorf("StorageKey should be prefixed: %s", k1)
	}
	if strings.ContainsAny(k1, "/?&") {
		t.Errorf("StorageKey should be backend-safe: %s", k1)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tests := []struct {
		name   string
		path   string
		params url.Values
		want   string
	}{
		{"no params", "/admin/contents/stats", nil, "/admin/contents/stats"},
		{"missing leading slash", "pwa/stats", nil, "/pwa/stats"},
		{"trailing slash", "/pwa/stats/", nil, "/pwa/stats"},
		{"empty params", "/pwa/stats", url.Values{}, "/pwa/stats"},
		{
			"params sorted",
			"/admin/media",
			url.Values{"type": {"image"}, "limit": {"20"}},
			"/admin/media?limit=20&type=image",
		},
		{
			"values escaped",
			"/admin/media",
			url.Values{"type": {"a&b"}},
			"/admin/media?type=a%26b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.QueryKey(tt.path, tt.params); got != tt.want {
				t.Errorf("QueryKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultKeyerDistinctQueries(t *testing.T) {
	k := NewDefaultKeyer()
	keys := map[string]bool{}
	for _, q := range []url.Values{
		{"type": {"image"}, "limit": {"20"}},
		{"type": {"image"}, "limit": {"21"}},
		{"type": {"video"}, "limit": {"20"}},
		{"type": {"image&limit=20"}},
	} {
		key := k.QueryKey("/admin/media", q)
		if keys[key] {
			t.Errorf("duplicate key %q", key)
		}
		keys[key] = true
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "https://cms.example.com|")

	key := scoped.QueryKey("/pwa/stats", nil)
	if key != "https://cms.example.com|/pwa/stats" {
		t.Errorf("ScopedKeyer QueryKey unexpected: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.QueryKey("pwa/stats", nil)
	if key != "prefix:/pwa/stats" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}

	if err := c.Set(ctx, "key", []byte(`{"data":[1,2]}`), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	data, ok, err := c.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}
	if string(data) != `{"data":[1,2]}` {
		t.Errorf("Get() data = %s", data)
	}

	_, ok, err = c.Get(ctx, "missing")
	if err != nil || ok {
		t.Errorf("Get(missing) = %v, %v; want false, nil", ok, err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	_, ok, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if ok {
		t.Error("Get() returned true for expired key")
	}
	if _, err := os.Stat(c.path("key")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("key")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := c.Get(ctx, "key")
	if err != nil || ok {
		t.Errorf("Get(corrupt) = %v, %v; want false, nil", ok, err)
	}
}

func TestFileCacheDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set(%s) failed: %v", k, err)
		}
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if err := c.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete() of missing key should succeed: %v", err)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear() removed %d entries, want 2", n)
	}

	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir should be empty, has %d entries", len(entries))
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	buf := []byte("value")
	if err := c.Set(ctx, "key", buf, 0); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	buf[0] = 'X'

	data, ok, err := c.Get(ctx, "key")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}
	if string(data) != "value" {
		t.Errorf("Set should copy input, got %s", data)
	}

	if err := c.Set(ctx, "short", []byte("x"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "short"); ok {
		t.Error("expired entry should be a miss")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}

	c.Close()
	if _, _, err := c.Get(ctx, "key"); err != ErrClosed {
		t.Errorf("Get after Close error = %v, want ErrClosed", err)
	}
}

func TestRedisCacheIntegration(t *testing.T) {
	addr := os.Getenv("ADMINPANEL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ADMINPANEL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "adminpanel-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache() failed: %v", err)
	}
	defer c.Close()

	exerciseBackend(t, c)
}

func TestMongoCacheIntegration(t *testing.T) {
	uri := os.Getenv("ADMINPANEL_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("ADMINPANEL_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	c, err := NewMongoCache(ctx, MongoConfig{URI: uri, Database: "adminpanel_test"})
	if err != nil {
		t.Fatalf("NewMongoCache() failed: %v", err)
	}
	defer c.Close()

	exerciseBackend(t, c)
}

func exerciseBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := StorageKey("/pwa/stats-" + time.Now().String())

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get(new key) = %v, %v; want false, nil", ok, err)
	}
	if err := c.Set(ctx, key, []byte(`{"stats":{}}`), time.Minute); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok || string(data) != `{"stats":{}}` {
		t.Fatalf("Get() = %s, %v, %v", data, ok, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Error("Get() after Delete should miss")
	}
}
