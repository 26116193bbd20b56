package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.Host)
	assert.NotZero(t, cfg.Port)
	assert.NotEmpty(t, cfg.CacheDir)
	assert.Equal(t, CatalogMemory, cfg.CatalogBackend)
	assert.Equal(t, PhotoBackendLocal, cfg.PhotoBackend)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")
	t.Setenv("CACHE_DIR", "/custom/photos")
	t.Setenv("CATALOG_BACKEND", "sqlite")
	t.Setenv("SHUTDOWN_TIMEOUT", "10s")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/custom/photos", cfg.CacheDir)
	assert.Equal(t, CatalogSQLite, cfg.CatalogBackend)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CACHE_DIR", "/from/env")

	cfg, err := Load([]string{"-port", "9100", "-cache-dir", "/from/flag", "-host", "localhost"})
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/from/flag", cfg.CacheDir)
	assert.Equal(t, "localhost:9100", cfg.Addr())
}

func TestLoadRejectsPositionalArgs(t *testing.T) {
	_, err := Load([]string{"serve"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Host:           "127.0.0.1",
			Port:           8080,
			CacheDir:       "/tmp/cache",
			CatalogBackend: CatalogMemory,
			PhotoBackend:   PhotoBackendLocal,
			MaxUploadMB:    50,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty host", mutate: func(c *Config) { c.Host = "" }, wantErr: true},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "empty cache dir", mutate: func(c *Config) { c.CacheDir = "" }, wantErr: true},
		{name: "unknown catalog", mutate: func(c *Config) { c.CatalogBackend = "postgres" }, wantErr: true},
		{name: "unknown photo backend", mutate: func(c *Config) { c.PhotoBackend = "ftp" }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.PhotoBackend = PhotoBackendS3 }, wantErr: true},
		{
			name: "s3 with bucket",
			mutate: func(c *Config) {
				c.PhotoBackend = PhotoBackendS3
				c.S3Bucket = "photos"
			},
		},
		{
			name: "s3 still needs cache dir",
			mutate: func(c *Config) {
				c.PhotoBackend = PhotoBackendS3
				c.S3Bucket = "photos"
				c.CacheDir = ""
			},
			wantErr: true,
		},
		{name: "zero upload limit", mutate: func(c *Config) { c.MaxUploadMB = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := &Config{MaxUploadMB: 2}
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes())
}

func TestEnsureCacheDir(t *testing.T) {
	for _, backend := range []string{PhotoBackendLocal, PhotoBackendS3} {
		t.Run(backend, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested", "cache")
			c := &Config{CacheDir: dir, PhotoBackend: backend}

			require.NoError(t, c.EnsureCacheDir())
			assert.DirExists(t, dir)
			require.NoError(t, c.EnsureCacheDir())
		})
	}
}

func TestEnsureCacheDirFailsOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	c := &Config{CacheDir: filepath.Join(file, "cache")}
	assert.Error(t, c.EnsureCacheDir())
}
