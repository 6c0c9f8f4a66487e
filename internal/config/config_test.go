package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.True(t, cfg.Feed.AllowSelfFollow)
	assert.Equal(t, 20*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "/auth/login/", cfg.Auth.LoginURL)
	assert.Equal(t, int64(5<<20), cfg.Storage.MaxBytes)
	assert.Equal(t, "/media/", cfg.Storage.MediaURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("YATUBE_FEED_PAGE_SIZE", "5")
	t.Setenv("YATUBE_CACHE_TTL", "1m")
	t.Setenv("YATUBE_FEED_ALLOW_SELF_FOLLOW", "false")
	t.Setenv("YATUBE_AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Feed.PageSize)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Feed.AllowSelfFollow)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "server:\n  addr: 127.0.0.1:9000\nstorage:\n  driver: s3\n  bucket: media\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "media", cfg.Storage.Bucket)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())
}
