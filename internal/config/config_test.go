package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, "https://randomuser.me", cfg.RandomUser.BaseURL)
	assert.Equal(t, 100, cfg.RandomUser.PageSize)
	assert.Equal(t, time.Duration(0), cfg.RandomUser.FetchTimeout())
	assert.Equal(t, 3*time.Second, cfg.List.WarmUpDelay())
	assert.Equal(t, 2*time.Second, cfg.List.LoadMoreDelay())
	assert.False(t, cfg.List.RollbackPageOnFailure)
	assert.True(t, cfg.List.AutoStart)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := "HTTP_PORT=9090\nRANDOMUSER_PAGE_SIZE=50\nRANDOMUSER_SEED=abc\nROLLBACK_PAGE_ON_FAILURE=true\nLOAD_MORE_DELAY_MS=0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.HTTPPort)
	assert.Equal(t, 50, cfg.RandomUser.PageSize)
	assert.Equal(t, "abc", cfg.RandomUser.Seed)
	assert.True(t, cfg.List.RollbackPageOnFailure)
	assert.Equal(t, time.Duration(0), cfg.List.LoadMoreDelay())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte("RANDOMUSER_PAGE_SIZE=50\n"), 0o600))
	t.Setenv("RANDOMUSER_PAGE_SIZE", "25")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.RandomUser.PageSize)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		errText string
	}{
		{name: "page size zero", mutate: func(c *Config) { c.RandomUser.PageSize = 0 }, errText: "PageSize"},
		{name: "bad base url", mutate: func(c *Config) { c.RandomUser.BaseURL = "not a url" }, errText: "BaseURL"},
		{name: "negative delay", mutate: func(c *Config) { c.List.WarmUpDelayMS = -1 }, errText: "WarmUpDelayMS"},
		{name: "redis without host", mutate: func(c *Config) { c.Redis.Enabled = true; c.Redis.Host = "" }, errText: "Host"},
		{name: "bad log format", mutate: func(c *Config) { c.Logger.Format = "xml" }, errText: "Format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(t.TempDir())
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
