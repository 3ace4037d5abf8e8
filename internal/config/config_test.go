package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"APITREE_BASE_URL", "APITREE_SPEC_FILE", "APITREE_SPEC_URL", "APITREE_EDITOR", "APITREE_DEBUG"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, Duration(0), cfg.Timeout)
	assert.False(t, cfg.Debug)
	assert.Equal(t, "", cfg.Spec())
	assert.NotEmpty(t, cfg.LogFile)
}

func TestLoadMissingRequired(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.ErrorContains(t, err, "read config")
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
base_url: http://127.0.0.1:10000
timeout: 15s
spec_file: api.yaml
editor: nano
debug: true
log_file: /tmp/x.log
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:10000", cfg.BaseURL)
	assert.Equal(t, Duration(15*time.Second), cfg.Timeout)
	assert.Equal(t, "nano", cfg.Editor)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/tmp/x.log", cfg.LogFile)

	abs, _ := filepath.Abs("api.yaml")
	assert.Equal(t, "@"+abs, cfg.Spec())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "base_url: http://from-file\nspec_url: http://file/openapi.json\n")
	t.Setenv("APITREE_BASE_URL", "http://from-env")
	t.Setenv("APITREE_DEBUG", "1")
	t.Setenv("APITREE_EDITOR", "vim -n")

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.BaseURL)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "vim -n", cfg.Editor)
	assert.Equal(t, "http://file/openapi.json", cfg.Spec())
}

func TestEnvSpecFileWinsOverURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("APITREE_SPEC_URL", "http://x/openapi.json")
	t.Setenv("APITREE_SPEC_FILE", "/srv/api.yaml")

	cfg, err := Load("", false)
	require.NoError(t, err)
	assert.Equal(t, "@/srv/api.yaml", cfg.Spec())
}

func TestBadTimeout(t *testing.T) {
	clearEnv(t)
	for _, v := range []string{"soon", "-5s"} {
		_, err := Load(writeConfig(t, "timeout: "+v+"\n"), true)
		assert.Error(t, err, v)
	}

	cfg, err := Load(writeConfig(t, "timeout: 0\n"), true)
	require.NoError(t, err)
	assert.Equal(t, Duration(0), cfg.Timeout)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "", NormalizeBaseURL("  "))
	assert.Equal(t, "http://localhost:8000", NormalizeBaseURL("localhost:8000/"))
	assert.Equal(t, "https://api.example.com", NormalizeBaseURL("https://api.example.com//"))
}
