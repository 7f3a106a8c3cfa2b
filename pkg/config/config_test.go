package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigWithoutFilesUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("local", t.TempDir())
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.API, cfg.API)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Port, "the gateway listens on loopback only")
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
api:
  base_url: http://base:8000
cache:
  stale_time: 10s
log:
  level: info
`)
	writeFile(t, dir, "prod.yaml", `
cache:
  backend: redis
redis:
  addr: redis:6379
  password: ${REDIS_PASSWORD}
log:
  level: warn
`)
	writeFile(t, dir, "secrets.env", "REDIS_PASSWORD=s3cr3t\n")

	cfg, err := LoadConfig("prod", dir)
	require.NoError(t, err)
	assert.Equal(t, "http://base:8000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Cache.StaleTime)
	assert.Equal(t, 5*time.Minute, cfg.Cache.GCTime)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "s3cr3t", cfg.Redis.Password)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "api:\n  base_url: http://base:8000\n")
	t.Setenv("ABRICOT_API_URL", "http://env:9000")
	t.Setenv("CACHE_STALE_TIME", "1m")
	t.Setenv("ABRICOT_TOKEN_PATH", "/tmp/tok")

	cfg, err := LoadConfig("", dir)
	require.NoError(t, err)
	assert.Equal(t, "http://env:9000", cfg.API.BaseURL)
	assert.Equal(t, time.Minute, cfg.Cache.StaleTime)
	assert.Equal(t, "/tmp/tok", cfg.Token.Path)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "api: [")
	_, err := LoadConfig("", dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"no backend url", func(c *Config) { c.API.BaseURL = "" }, true},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }, true},
		{"redis with addr", func(c *Config) { c.Cache.Backend = "redis"; c.Redis.Addr = "localhost:6379" }, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"negative stale time", func(c *Config) { c.Cache.StaleTime = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
