package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  json_format: true
pipeline:
  threads: 4
  output_version: 1.0.0
  kinds: [fail, review]
  levels: [error]
  partial_fingerprints: [primaryLocationLineHash]
  compare: message;level
`)

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, GetBoolValue(cfg, "Logger.JSONFormat", false))
	assert.True(t, GetBoolValue(cfg, "Logger.DisableTime", true), "unset values fall back to the default")
	assert.Equal(t, 4, cfg.Pipeline.Threads)
	assert.Equal(t, []string{"fail", "review"}, cfg.Pipeline.Kinds)
	assert.Equal(t, "message;level", cfg.Pipeline.Compare)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigOptionalMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.yml")

	cfg, err := LoadConfig(missing, true)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)

	_, err = LoadConfig(missing, false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigRejectsUnknownDirectives(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "pipeline:\n  workers: 3\n"), false)
	assert.Error(t, err)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""), false)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestValidateConfigPathRejectsDirectory(t *testing.T) {
	err := ValidateConfigPath(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "empty", cfg: &Config{}},
		{name: "nil", cfg: nil, wantErr: "configuration object is nil"},
		{name: "log level", cfg: &Config{Logger: Logger{Level: "loud"}}, wantErr: "logger directive is invalid"},
		{name: "threads", cfg: &Config{Pipeline: Pipeline{Threads: -1}}, wantErr: "threads must be between"},
		{name: "output version", cfg: &Config{Pipeline: Pipeline{OutputVersion: "3.0"}}, wantErr: "output_version"},
		{name: "kind", cfg: &Config{Pipeline: Pipeline{Kinds: []string{"broken"}}}, wantErr: "kinds"},
		{name: "level", cfg: &Config{Pipeline: Pipeline{Levels: []string{"fatal"}}}, wantErr: "levels"},
		{name: "compare", cfg: &Config{Pipeline: Pipeline{Compare: "color"}}, wantErr: "compare"},
		{name: "partial key", cfg: &Config{Pipeline: Pipeline{PartialFingerprints: []string{" "}}}, wantErr: "partial_fingerprints"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
			assert.ErrorContains(t, err, "YAML global config")
		})
	}
}

func TestGetBoolValue(t *testing.T) {
	yes := true
	cfg := &Config{Logger: Logger{IncludeLocation: &yes}}

	assert.True(t, GetBoolValue(cfg, "Logger.IncludeLocation", false))
	assert.False(t, GetBoolValue(cfg, "Logger.Missing", false))
	assert.True(t, GetBoolValue(nil, "Logger.JSONFormat", true))
	assert.True(t, GetBoolValue((*Config)(nil), "Logger.JSONFormat", true))
}

func TestSetThen(t *testing.T) {
	assert.Equal(t, 4, SetThen(0, 4))
	assert.Equal(t, 2, SetThen(2, 4))
	assert.Equal(t, "a", SetThen("", "a"))
	assert.Equal(t, []string{"x"}, SetThen([]string(nil), []string{"x"}))
}
