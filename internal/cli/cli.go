package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/adminpanel/internal/config"
	"github.com/matzehuels/adminpanel/pkg/api"
	"github.com/matzehuels/adminpanel/pkg/buildinfo"
	"github.com/matzehuels/adminpanel/pkg/cache"
	"github.com/matzehuels/adminpanel/pkg/hooks"
	"github.com/matzehuels/adminpanel/pkg/swr"
	"github.com/matzehuels/adminpanel/pkg/track"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "adminpanel"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	baseURL    string
	noCache    bool

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Adminpanel is a terminal and HTTP front end for the content admin API",
		Long:         `Adminpanel reads content statistics, display cards, PWA statistics and the media library from the admin API, caches responses with stale-while-revalidate semantics, and serves them as a small web panel.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/adminpanel/config.toml)")
	flags.StringVar(&c.baseURL, "base-url", "", "admin API base URL (overrides config)")
	flags.BoolVar(&c.noCache, "no-cache", false, "do not read or write the persistent cache")

	root.AddCommand(c.statsCommand())
	root.AddCommand(c.cardsCommand())
	root.AddCommand(c.pwaCommand())
	root.AddCommand(c.mediaCommand())
	root.AddCommand(c.trackCommand())
	root.AddCommand(c.compressCommand())
	root.AddCommand(c.dashboardCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.aboutCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "base_url", cfg.BaseURL, "cache", cfg.Cache.Backend)
	return nil
}

// settings returns the loaded configuration, or defaults when a command runs
// without the root pre-run (tests).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Session Factory
// =============================================================================

// session bundles everything a data command needs. Close drains background
// work and releases the cache backend.
type session struct {
	client  *api.Client
	backend cache.Cache
	store   *swr.Store
	hooks   *hooks.Hooks
	tracker *track.Tracker
}

// newSession builds the API client, cache backend, store and hooks from the
// loaded configuration.
func (c *CLI) newSession(ctx context.Context) (*session, error) {
	cfg := c.settings()

	client, err := api.NewClient(cfg.BaseURL, api.Options{
		Token:   cfg.Token,
		Timeout: cfg.Timeout.Duration,
		Logger:  c.Logger,
	})
	if err != nil {
		return nil, err
	}

	backend, err := c.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	dedupe := cfg.SWR.DedupeInterval.Duration
	if dedupe == 0 {
		dedupe = -1
	}
	store := swr.NewStore(swr.Options{
		DedupeInterval:           dedupe,
		DisableMountRevalidation: !cfg.SWR.RevalidateOnMount,
		DisableFocusRevalidation: !cfg.SWR.RevalidateOnFocus,
		Backend:                  backend,
		TTL:                      cfg.Cache.TTL.Duration,
		Logger:                   c.Logger,
	})

	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), client.BaseURL()+"|")
	return &session{
		client:  client,
		backend: backend,
		store:   store,
		hooks:   hooks.New(client, store, keyer, c.Logger),
		tracker: track.NewTracker(client, c.Logger),
	}, nil
}

// Close waits for outstanding posts and fetches, then closes the backend.
func (s *session) Close() {
	s.tracker.Wait()
	s.store.Wait()
	_ = s.backend.Close()
}

// openBackend opens the configured persistent cache.
func (c *CLI) openBackend(ctx context.Context) (cache.Cache, error) {
	cfg := c.settings()
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   appName + ":",
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	case config.BackendMongo:
		mc, err := cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        cfg.Cache.MongoURI,
			Database:   cfg.Cache.MongoDatabase,
			Collection: "swr_entries",
		})
		if err != nil {
			return nil, err
		}
		return mc, nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if dir := c.settings().Cache.Dir; dir != "" {
		return dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/adminpanel/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
