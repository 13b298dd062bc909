package easyrequest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/always-cache/easyrequest/cache"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

const testConfig = `
workers: 2
timeout: 5s
maxRetries: 3
backoffMultiplier: 1.5
defaultTTL: 1m
rules:
  - prefix: /static/
    default: max-age=3600
`

func writeConfig(t *testing.T, contents string) string {
	filename := filepath.Join(t.TempDir(), "easyrequest.yml")
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
	return filename
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)
	require.Equal(t, 2, config.Workers)
	require.Equal(t, 5*time.Second, config.Timeout)
	require.Equal(t, 3, config.MaxRetries)
	require.Equal(t, 1.5, config.BackoffMultiplier)
	require.Equal(t, time.Minute, config.DefaultTTL)
	require.Len(t, config.Rules, 1)
	require.Equal(t, "/static/", config.Rules[0].Prefix)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("EASYREQUEST_WORKERS", "16")
	t.Setenv("EASYREQUEST_TIMEOUT", "250ms")
	t.Setenv("EASYREQUEST_CACHE_DB", "memory")

	config, err := LoadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)
	require.Equal(t, 16, config.Workers)
	require.Equal(t, 250*time.Millisecond, config.Timeout)
	require.Equal(t, MemoryDB, config.CacheDB)
	// untouched by the environment
	require.Equal(t, 3, config.MaxRetries)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("EASYREQUEST_MAX_RETRIES", "4")
	config, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, 4, config.MaxRetries)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
workers: -1
timeout: -1s
rules:
  - path: /a
    prefix: /b
    override: no-cache
`))
	require.Error(t, err)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 3)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nothing.yml"))
	require.Error(t, err)
}

func TestOpenCache(t *testing.T) {
	store, err := OpenCache("")
	require.NoError(t, err)
	require.IsType(t, cache.MemCache{}, store)

	store, err = OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.IsType(t, cache.SQLiteCache{}, store)
	require.NoError(t, store.Close())
}

func TestClientConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)
	store := cache.NewMemCache()
	clientConfig := config.ClientConfig(store)
	require.Equal(t, 2, clientConfig.Workers)
	require.Equal(t, 5*time.Second, clientConfig.Timeout)
	require.Equal(t, config.Rules, clientConfig.Rules)
}
