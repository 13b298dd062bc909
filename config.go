package easyrequest

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/always-cache/easyrequest/cache"
	responsetransformer "github.com/always-cache/easyrequest/pkg/response-transformer"
	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by LoadConfig.
const EnvPrefix = "EASYREQUEST_"

// MemoryDB is the cache database name for a shared in-memory SQLite database.
const MemoryDB = "memory"

// FileConfig is the configuration read from a YAML file and the environment.
type FileConfig struct {
	Workers           int                       `yaml:"workers" env:"WORKERS"`
	Namespace         string                    `yaml:"namespace" env:"NAMESPACE"`
	Timeout           time.Duration             `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries        int                       `yaml:"maxRetries" env:"MAX_RETRIES"`
	BackoffMultiplier float64                   `yaml:"backoffMultiplier" env:"BACKOFF_MULTIPLIER"`
	DefaultTTL        time.Duration             `yaml:"defaultTTL" env:"DEFAULT_TTL"`
	CacheDB           string                    `yaml:"cacheDB" env:"CACHE_DB"`
	Rules             responsetransformer.Rules `yaml:"rules"`
}

// LoadConfig reads the YAML file, if a filename is given,
// and then applies the EASYREQUEST_ environment variables.
func LoadConfig(filename string) (FileConfig, error) {
	var config FileConfig
	if filename != "" {
		configBytes, err := os.ReadFile(filename)
		if err != nil {
			return config, err
		}
		if err := yaml.Unmarshal(configBytes, &config); err != nil {
			return config, fmt.Errorf("could not parse %s: %w", filename, err)
		}
	}
	if err := env.ParseWithOptions(&config, env.Options{Prefix: EnvPrefix}); err != nil {
		return config, fmt.Errorf("could not read environment: %w", err)
	}
	return config, config.Validate()
}

// Validate returns all problems with the configuration.
func (c FileConfig) Validate() error {
	var result *multierror.Error
	if c.Workers < 0 {
		result = multierror.Append(result, errors.New("workers must not be negative"))
	}
	if c.Timeout < 0 {
		result = multierror.Append(result, errors.New("timeout must not be negative"))
	}
	if c.MaxRetries < 0 {
		result = multierror.Append(result, errors.New("maxRetries must not be negative"))
	}
	if c.BackoffMultiplier < 0 {
		result = multierror.Append(result, errors.New("backoffMultiplier must not be negative"))
	}
	if c.DefaultTTL < 0 {
		result = multierror.Append(result, errors.New("defaultTTL must not be negative"))
	}
	if err := c.Rules.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// ClientConfig returns the client configuration, using the given store.
func (c FileConfig) ClientConfig(store cache.Store) Config {
	return Config{
		Cache:             store,
		Workers:           c.Workers,
		Namespace:         c.Namespace,
		Timeout:           c.Timeout,
		MaxRetries:        c.MaxRetries,
		BackoffMultiplier: c.BackoffMultiplier,
		DefaultTTL:        c.DefaultTTL,
		Rules:             c.Rules,
	}
}

// OpenCache opens the cache store for the database name.
// An empty name is a plain in-memory cache, MemoryDB an in-memory SQLite database,
// anything else an SQLite database file.
func OpenCache(db string) (cache.Store, error) {
	switch db {
	case "":
		return cache.NewMemCache(), nil
	case MemoryDB:
		db = "file::memory:?cache=shared"
	}
	store, err := cache.NewSQLiteCache(db)
	if err != nil {
		return nil, err
	}
	return store, nil
}
