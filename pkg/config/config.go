// Package config reads hoister.toml.
//
//	registry = "npm"
//	registry_url = "https://registry.npmjs.org"
//	ignore_optional = true
//	concurrency = 8
//
//	[cache]
//	backend = "redis"
//	redis_addr = "redis://localhost:6379/0"
//	ttl = "12h"
//
//	[folders]
//	bower = "bower_components"
//
// Every key is optional. Unknown keys are rejected so typos surface early.
package config

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/hoister/pkg/errors"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "hoister.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

const (
	defaultRegistry    = "npm"
	defaultRegistryURL = "https://registry.npmjs.org"
	defaultConcurrency = 16
	defaultTTL         = 24 * time.Hour
)

// Config is the decoded configuration file.
type Config struct {
	Registry       string            `toml:"registry"`
	RegistryURL    string            `toml:"registry_url"`
	Flat           bool              `toml:"flat"`
	IgnoreOptional bool              `toml:"ignore_optional"`
	Production     bool              `toml:"production"`
	Concurrency    int               `toml:"concurrency"`
	Lockfile       string            `toml:"lockfile"`
	Cache          CacheConfig       `toml:"cache"`
	Folders        map[string]string `toml:"folders"`
}

// CacheConfig selects where registry responses are cached.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Duration decodes TOML strings such as "90m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of Config with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	cfg := c
	if cfg.Registry == "" {
		cfg.Registry = defaultRegistry
	}
	if cfg.RegistryURL == "" {
		cfg.RegistryURL = defaultRegistryURL
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheFile
	}
	if cfg.Cache.TTL.Duration <= 0 {
		cfg.Cache.TTL.Duration = defaultTTL
	}
	return cfg
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheNone}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	for registry, folder := range c.Folders {
		if folder == "" || strings.ContainsAny(folder, `/\`) {
			return errors.New(errors.ErrCodeInvalidConfig, "folder for %q must be a single path segment, got %q", registry, folder)
		}
	}
	return nil
}

// Parse decodes, defaults and validates data.
func Parse(data []byte) (Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	return Parse(data)
}

// LoadOptional reads path, returning [Default] when the file does not exist.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return Default(), nil
	}
	return cfg, err
}
