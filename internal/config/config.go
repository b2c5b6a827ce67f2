// Package config provides configuration types, defaults and loading for oidtree.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/oidtree/pkg/domain"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. OIDTREE_STORE_DRIVER.
const EnvPrefix = "OIDTREE"

// DefaultPath is the project-local config file.
var DefaultPath = filepath.Join(".oidtree", "config.yaml")

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Suggestion providers.
const (
	ProviderStatic = "static"
	ProviderOpenAI = "openai"
)

// Config holds all configuration options for oidtree.
type Config struct {
	Namespace domain.Namespace `mapstructure:"namespace" yaml:"namespace"`
	Key       string           `mapstructure:"key" yaml:"key"`
	SeedFile  string           `mapstructure:"seed_file" yaml:"seed_file,omitempty"`
	Store     StoreConfig      `mapstructure:"store" yaml:"store"`
	Suggest   SuggestConfig    `mapstructure:"suggest" yaml:"suggest"`
	Server    ServerConfig     `mapstructure:"server" yaml:"server"`
	Log       LogConfig        `mapstructure:"log" yaml:"log"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	Driver string      `mapstructure:"driver" yaml:"driver"` // memory, file (default), redis or sqlite
	Path   string      `mapstructure:"path" yaml:"path"`     // directory for file, database file for sqlite
	Redis  RedisConfig `mapstructure:"redis" yaml:"redis"`
	Watch  bool        `mapstructure:"watch" yaml:"watch"` // reload on external changes
	// ReadOnly rejects every write, for mirrors of a registry edited elsewhere.
	ReadOnly bool `mapstructure:"read_only" yaml:"read_only"`
}

// RedisConfig holds connection and key layout settings for the Redis store.
type RedisConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Prefix  string        `mapstructure:"prefix" yaml:"prefix"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Lock    bool          `mapstructure:"lock" yaml:"lock"` // serialise writers across replicas
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

// SuggestConfig configures the suggestion provider.
type SuggestConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"` // static (default) or openai
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url"`
	Model    string        `mapstructure:"model" yaml:"model"`
	APIKey   string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Namespace: domain.DefaultNamespace(),
		Key:       domain.DefaultRegistryKey,
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   filepath.Join(".oidtree", "registry"),
			Redis: RedisConfig{
				URL:     "redis://localhost:6379/0",
				Prefix:  "oidtree:",
				LockTTL: 30 * time.Second,
			},
		},
		Suggest: SuggestConfig{
			Provider: ProviderStatic,
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
			CacheTTL: 10 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers Defaults on v so that env overrides work for every key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("namespace.root", d.Namespace.Root)
	v.SetDefault("namespace.organization", d.Namespace.Organization)
	v.SetDefault("namespace.domain", d.Namespace.Domain)
	v.SetDefault("namespace.header_prefix", d.Namespace.HeaderPrefix)
	v.SetDefault("key", d.Key)
	v.SetDefault("seed_file", "")
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.watch", d.Store.Watch)
	v.SetDefault("store.read_only", d.Store.ReadOnly)
	v.SetDefault("store.redis.url", d.Store.Redis.URL)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.redis.ttl", d.Store.Redis.TTL)
	v.SetDefault("store.redis.lock", d.Store.Redis.Lock)
	v.SetDefault("store.redis.lock_ttl", d.Store.Redis.LockTTL)
	v.SetDefault("suggest.provider", d.Suggest.Provider)
	v.SetDefault("suggest.base_url", d.Suggest.BaseURL)
	v.SetDefault("suggest.model", d.Suggest.Model)
	v.SetDefault("suggest.api_key", "")
	v.SetDefault("suggest.timeout", d.Suggest.Timeout)
	v.SetDefault("suggest.cache_ttl", d.Suggest.CacheTTL)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration into a Config.
//
// Lookup order: the explicit path (must exist), then .oidtree/config.yaml in
// the working directory, then ~/.config/oidtree/config.yaml. A missing file is
// not an error. OIDTREE_* environment variables override file values, with
// nested keys joined by "_" (OIDTREE_STORE_DRIVER).
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(DefaultPath); err == nil {
		v.SetConfigFile(DefaultPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "oidtree"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Namespace = cfg.Namespace.WithDefaults()
	if cfg.Suggest.APIKey == "" {
		cfg.Suggest.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, cfg.Validate()
}

// Validate checks enumerated fields and the namespace root.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Suggest.Provider {
	case ProviderStatic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown suggestion provider %q", c.Suggest.Provider)
	}
	if !domain.WellFormedIdentifier(c.Namespace.Root) {
		return fmt.Errorf("namespace root %q is not a dotted identifier", c.Namespace.Root)
	}
	if c.Key == "" {
		return errors.New("registry key must not be empty")
	}
	return nil
}
