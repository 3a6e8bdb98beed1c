package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ccstats/internal/store"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/dev")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, store.DriverDuckDB, cfg.Driver)
	assert.Equal(t, "127.0.0.1:3000", cfg.Listen)
	assert.Equal(t, 60*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, filepath.Join("/home/dev", ".claude", "projects"), cfg.ProjectsDir)
	assert.Equal(t, filepath.Join("/home/dev", ".claude", "hooks"), cfg.HooksDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CCSTATS_DRIVER", "sqlite3")
	t.Setenv("CCSTATS_LISTEN", ":9999")
	t.Setenv("CCSTATS_QUERY_TIMEOUT", "5s")
	t.Setenv("CCSTATS_THREADS", "4")
	t.Setenv("CCSTATS_PROJECTS_DIR", "/data/projects")
	t.Setenv("CCSTATS_HOOKS_DIR", "/data/hooks")
	t.Setenv("CCSTATS_VERBOSE", "true")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, store.DriverSQLite, cfg.Driver)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, "/data/projects", cfg.ProjectsDir)
	assert.Equal(t, "/data/hooks", cfg.HooksDir)
	assert.True(t, cfg.Verbose)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccstats.yaml")
	content := "driver: sqlite3\nmemory_limit: 2GB\nshutdown_timeout: 3s\nprojects_dir: /logs\nhooks_dir: /hooks\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, store.DriverSQLite, cfg.Driver)
	assert.Equal(t, "2GB", cfg.MemoryLimit)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, store.Options{Driver: store.DriverSQLite, MemoryLimit: "2GB"}, cfg.StoreOptions())
	assert.Equal(t, "/logs", cfg.Sources().ProjectsDir)
}

func TestReadFile_ExplicitMissingFile(t *testing.T) {
	err := ReadFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReadFile_SearchMissingIsFine(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	assert.NoError(t, ReadFile(New(), ""))
}

func TestValidate(t *testing.T) {
	valid := Config{
		Driver:          store.DriverDuckDB,
		Listen:          ":3000",
		ShutdownTimeout: time.Second,
		LogFormat:       "json",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "driver", mutate: func(c *Config) { c.Driver = "postgres" }, want: "unsupported driver"},
		{name: "threads", mutate: func(c *Config) { c.Threads = -1 }, want: "threads"},
		{name: "query timeout", mutate: func(c *Config) { c.QueryTimeout = -time.Second }, want: "query_timeout"},
		{name: "shutdown timeout", mutate: func(c *Config) { c.ShutdownTimeout = 0 }, want: "shutdown_timeout"},
		{name: "listen", mutate: func(c *Config) { c.Listen = " " }, want: "listen"},
		{name: "log format", mutate: func(c *Config) { c.LogFormat = "xml" }, want: "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
