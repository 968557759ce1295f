package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWhenNothingSet(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8780", c.Listen)
	assert.Equal(t, StoreMemory, c.Store.Kind)
	assert.Equal(t, 5*time.Second, c.Attestation.PollInterval.Std())
}

func TestYAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	body := `
listen: ":9000"
store:
  kind: redis
  redis:
    addr: "redis.internal:6379"
    ttl: 1h
attestation:
  base_url: "https://iris.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Listen)
	assert.Equal(t, StoreRedis, c.Store.Kind)
	assert.Equal(t, "redis.internal:6379", c.Store.Redis.Addr)
	assert.Equal(t, time.Hour, c.Store.Redis.TTL.Std())
	assert.Equal(t, "https://iris.example.com", c.Attestation.BaseURL)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9000\"\n"), 0o644))

	t.Setenv("BRIDGE_LISTEN", ":7000")
	t.Setenv("BRIDGE_LOG_LEVEL", "debug")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.Listen)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestMissingFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
}

func TestRejectsUnknownStoreKind(t *testing.T) {
	t.Setenv("BRIDGE_STORE_KIND", "etcd")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown store kind")
}

func TestSQLiteRequiresPath(t *testing.T) {
	t.Setenv("BRIDGE_STORE_KIND", StoreSQLite)
	_, err := Load("")
	assert.ErrorContains(t, err, "store.path")
}
