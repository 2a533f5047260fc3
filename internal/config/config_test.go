package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therandomlabs/mpdl/internal/index"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Default(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Formats(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "mpdl.yml",
			content: `curseforge:
  endpoint: https://cf.example
  apiKey: secret
threads: 8
timeout: 1m
presets:
  mine: https://example.com/mine.txt
`,
		},
		{
			name: "toml",
			file: "mpdl.toml",
			content: `threads = 8
timeout = "1m"

[curseforge]
endpoint = "https://cf.example"
apiKey = "secret"

[presets]
mine = "https://example.com/mine.txt"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			path := writeConfig(t, tt.file, tt.content)

			// Act
			cfg, err := Load(path)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, "https://cf.example", cfg.CurseForge.Endpoint)
			assert.Equal(t, "secret", cfg.CurseForge.APIKey)
			assert.Equal(t, index.DefaultUserAgent, cfg.CurseForge.UserAgent)
			assert.Equal(t, 8, cfg.Threads)
			assert.Equal(t, time.Minute, cfg.Timeout)
			assert.Equal(t, map[string]string{"mine": "https://example.com/mine.txt"}, cfg.Presets)
		})
	}
}

func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")

	cfg, err := Load(writeConfig(t, "mpdl.yaml", "threads: 2\n"))

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.CurseForge.APIKey)
	assert.Equal(t, 2, cfg.Threads)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "mpdl.json", "{}"},
		{"invalid yaml", "mpdl.yml", "threads: [\n"},
		{"invalid toml", "mpdl.toml", "threads = \n"},
		{"zero threads", "mpdl.yml", "threads: 0\n"},
		{"negative timeout", "mpdl.toml", "timeout = \"-1s\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestConfig_IndexOptions(t *testing.T) {
	cfg := Default()
	cfg.CurseForge.APIKey = "k"

	opts := cfg.IndexOptions()

	assert.Equal(t, index.DefaultEndpoint, opts.Endpoint)
	assert.Equal(t, "k", opts.APIKey)
	assert.Nil(t, opts.Client)
}
