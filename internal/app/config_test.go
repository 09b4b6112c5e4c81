package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, 30, cfg.ExpiryWindowDays)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.False(t, cfg.UsesSQLite())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("SQLITE_PATH=/tmp/probe.db\n"), 0o600))
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "")
	os.Unsetenv("SQLITE_PATH")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.True(t, cfg.UsesSQLite())
	assert.Equal(t, "/tmp/probe.db", cfg.SQLitePath)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")
	cases := map[string]map[string]string{
		"driver":   {"STORE_DRIVER": "mongo"},
		"expiry":   {"STORE_DRIVER": "postgres", "EXPIRY_WINDOW_DAYS": "0"},
		"rate":     {"STORE_DRIVER": "postgres", "RATE_LIMIT_PER_MINUTE": "-1"},
		"overhead": {"STORE_DRIVER": "postgres", "OVERHEAD_PER_PIECE": "-5"},
		"duration": {"STORE_DRIVER": "postgres", "REPORT_CACHE_TTL": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(missing)
			assert.Error(t, err)
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json", AppEnv: "production"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	newLogger(&Config{LogFormat: "pretty"}, &buf).Debug("trace")
	assert.Contains(t, buf.String(), "msg=trace")
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(TestModeEnv, "true")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(TestModeEnv, "nope")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
