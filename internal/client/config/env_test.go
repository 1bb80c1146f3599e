package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_Variables(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv(EnvRealtimeURL, "ws://env/ws")
	t.Setenv(EnvHealthAddr, "env:1")
	t.Setenv(EnvCheckInterval, "7s")

	cfg := &Config{APIBaseURL: "http://default"}
	parseEnv(cfg)

	assert.Equal(t, "http://default", cfg.APIBaseURL)
	assert.Equal(t, "ws://env/ws", cfg.RealtimeURL)
	assert.Equal(t, "env:1", cfg.HealthAddr)
	assert.Equal(t, 7*time.Second, cfg.OnlineCheckInterval)
}

func TestParseEnv_DotenvFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "client.env")
	require.NoError(t, os.WriteFile(path, []byte("QC_DB_PATH=from-file.db\n"), 0o600))
	// Registered so the variable loaded from the file is restored afterwards.
	t.Setenv(EnvDatabasePath, "")
	require.NoError(t, os.Unsetenv(EnvDatabasePath))

	os.Args = []string{"testbin", "-e", path}
	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "from-file.db", cfg.DatabasePath)
}

func TestParseEnv_BadInterval(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	t.Setenv(EnvCheckInterval, "soon")
	require.Panics(t, func() { parseEnv(&Config{}) })
}

func TestParseEnv_MissingExplicitFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "none.env")}

	require.Panics(t, func() { parseEnv(&Config{}) })
}
