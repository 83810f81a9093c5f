package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, "session", filepath.Base(c.SessionFile))
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_url":      "http://json:1",
		"session_file":    "/tmp/json-session",
		"request_timeout": "3s",
	})

	t.Setenv("ALUMNIKEEPER_SERVER", "http://env:2")
	t.Setenv("ALUMNIKEEPER_SESSION_FILE", "")
	t.Setenv("ALUMNIKEEPER_TIMEOUT", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env:2", cfg.ServerURL)
	assert.Equal(t, "/tmp/json-session", cfg.SessionFile)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Setenv("ALUMNIKEEPER_SERVER", "")
	t.Setenv("ALUMNIKEEPER_SESSION_FILE", "")
	t.Setenv("ALUMNIKEEPER_TIMEOUT", "250ms")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestTimeout)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv("ALUMNIKEEPER_TIMEOUT", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("ALUMNIKEEPER_TIMEOUT", "soon")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "ALUMNIKEEPER_TIMEOUT")
}
