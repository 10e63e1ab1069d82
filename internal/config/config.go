// Package config loads the adminpanel configuration file.
//
// Settings come from three layers, later layers winning: built-in defaults,
// a TOML file, and ADMINPANEL_* environment variables. Command-line flags
// are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
)

// Environment variables read by Load.
const (
	EnvBaseURL   = "ADMINPANEL_BASE_URL"
	EnvToken     = "ADMINPANEL_TOKEN"
	EnvCache     = "ADMINPANEL_CACHE"
	EnvRedisAddr = "ADMINPANEL_REDIS_ADDR"
	EnvMongoURI  = "ADMINPANEL_MONGO_URI"
	EnvRedisDB   = "ADMINPANEL_REDIS_DB"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Duration is a time.Duration that decodes from strings like "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the full configuration.
type Config struct {
	BaseURL string       `toml:"base_url"`
	Token   string       `toml:"token"`
	Timeout Duration     `toml:"timeout"`
	Cache   CacheConfig  `toml:"cache"`
	SWR     SWRConfig    `toml:"swr"`
	Server  ServerConfig `toml:"server"`
}

// CacheConfig selects and configures the persistent SWR backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	TTL           Duration `toml:"ttl"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

// SWRConfig tunes revalidation.
type SWRConfig struct {
	DedupeInterval    Duration `toml:"dedupe_interval"`
	RevalidateOnFocus bool     `toml:"revalidate_on_focus"`
	RevalidateOnMount bool     `toml:"revalidate_on_mount"`
}

// ServerConfig configures `adminpanel serve`.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Theme string `toml:"theme"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL: "http://localhost:8080",
		Timeout: Duration{10 * time.Second},
		Cache: CacheConfig{
			Backend:       BackendFile,
			TTL:           Duration{24 * time.Hour},
			MongoDatabase: "adminpanel",
		},
		SWR: SWRConfig{
			DedupeInterval:    Duration{2 * time.Second},
			RevalidateOnFocus: true,
			RevalidateOnMount: true,
		},
		Server: ServerConfig{
			Addr:  ":8090",
			Theme: "light",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/adminpanel/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "adminpanel", "config.toml"), nil
}

// Load reads path over the defaults and applies environment overrides. An
// empty path uses DefaultPath; a missing file at the default path is not an
// error, a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "load %s", path)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvToken); ok {
		c.Token = v
	}
	if v, ok := lookup(EnvCache); ok && v != "" {
		c.Cache.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Cache.RedisAddr = v
		if _, set := lookup(EnvCache); !set {
			c.Cache.Backend = BackendRedis
		}
	}
	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Cache.MongoURI = v
		if _, set := lookup(EnvCache); !set && c.Cache.RedisAddr == "" {
			c.Cache.Backend = BackendMongo
		}
	}
	if v, ok := lookup(EnvRedisDB); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "%s", EnvRedisDB)
		}
		c.Cache.RedisDB = db
	}
	return nil
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if err := apperrors.ValidateURL(c.BaseURL); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "base_url: %s", apperrors.UserMessage(err))
	}
	if c.Timeout.Duration < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "timeout cannot be negative")
	}
	if c.Cache.TTL.Duration < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendMemory, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	case BackendMongo:
		if c.Cache.MongoURI == "" {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "cache.mongo_uri is required for the mongo backend")
		}
	default:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// String renders the configuration as TOML with the token redacted.
func (c *Config) String() string {
	redacted := *c
	if redacted.Token != "" {
		redacted.Token = "********"
	}
	if redacted.Cache.RedisPassword != "" {
		redacted.Cache.RedisPassword = "********"
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(redacted); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
