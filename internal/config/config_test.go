package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APICLI_CONFIG", "")
	t.Setenv("APICLI_DATA_DIR", "")
	t.Setenv("APICLI_STORAGE", "")
	t.Setenv("APICLI_LOG_LEVEL", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("APICLI_AWS_PROFILE", "")
	t.Setenv("APICLI_BLOCK_METADATA", "")
	return home
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, int64(50*1024*1024), cfg.HTTP.MaxResponseBytes)
	assert.True(t, cfg.BlockMetadata())
	assert.Equal(t, "3h", cfg.Monitor.Window)
	assert.Equal(t, "all", cfg.Monitor.View)
	assert.Equal(t, time.Minute, cfg.Monitor.RefreshInterval)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
}

func TestLoad_SearchOrder(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".apicli", "config.yml"), "storage: json\n")
	writeConfig(t, filepath.Join(home, ".config", "apicli", "config.yml"), "log:\n  level: debug\n")

	path, found := FindConfigPath()
	require.True(t, found)
	assert.Equal(t, filepath.Join(home, ".config", "apicli", "config.yml"), path)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	writeConfig(t, filepath.Join(xdg, "apicli", "config.yml"), "storage: json\n")

	path, _ = FindConfigPath()
	assert.Equal(t, filepath.Join(xdg, "apicli", "config.yml"), path)

	explicit := filepath.Join(t.TempDir(), "custom.yml")
	writeConfig(t, explicit, "storage: json\n")
	t.Setenv("APICLI_CONFIG", explicit)

	path, _ = FindConfigPath()
	assert.Equal(t, explicit, path)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	writeConfig(t, path, `
data_dir: /tmp/apicli-data
storage: json
log:
  level: warn
  format: json
http:
  max_response_bytes: 1024
  block_metadata_endpoints: false
monitor:
  window: 24h
  view: active-tabs
  refresh_interval: 30s
openai:
  model: gpt-4o-mini
cloudwatch:
  region: eu-west-1
  log_group: /apicli/history
server:
  addr: ":9000"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/apicli-data", cfg.DataDir)
	assert.Equal(t, "json", cfg.Storage)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(1024), cfg.HTTP.MaxResponseBytes)
	assert.False(t, cfg.BlockMetadata())
	assert.Equal(t, "24h", cfg.Monitor.Window)
	assert.Equal(t, "active-tabs", cfg.Monitor.View)
	assert.Equal(t, 30*time.Second, cfg.Monitor.RefreshInterval)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "eu-west-1", cfg.CloudWatch.Region)
	assert.Equal(t, "/apicli/history", cfg.CloudWatch.LogGroup)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	writeConfig(t, path, "storage: sqlite\nopenai:\n  api_key: from-file\n")

	t.Setenv("APICLI_STORAGE", "json")
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("APICLI_AWS_PROFILE", "prod")
	t.Setenv("APICLI_LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Storage)
	assert.Equal(t, "from-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "prod", cfg.CloudWatch.Profile)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile_Invalid(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad yaml", "storage: [", "failed to parse"},
		{"bad storage", "storage: redis", "storage must be sqlite or json"},
		{"bad window", "monitor:\n  window: 2h", "monitor.window"},
		{"bad view", "monitor:\n  view: tabs", "monitor.view"},
		{"bad level", "log:\n  level: loud", "log.level"},
		{"negative interval", "monitor:\n  refresh_interval: -5s", "refresh_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yml")
			writeConfig(t, path, tt.content)

			_, err := LoadFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}
