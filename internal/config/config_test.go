package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, envPrefix) {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAndGet(t *testing.T) {
	isolate(t)
	Load()

	require.Equal(t, "default", Get("missing", "default"))
	require.Equal(t, 25, GetInt("page_size", 0))
	require.Equal(t, 3, GetInt("retries", 0))
	require.Equal(t, "table", Get("output_format", ""))
	require.False(t, GetBool("debug", true))
}

func TestLoadCreatesSampleConfig(t *testing.T) {
	dir := isolate(t)
	Load()

	path := filepath.Join(dir, "config", "confluence-cli", "config.toml")
	require.Equal(t, path, Path())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[default]")
	assert.NotContains(t, string(data), "pat =")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, FileModeSecret, info.Mode().Perm())
}

func TestLoadProfileFallsBackToDefault(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
[default]
base_url = "https://wiki.example.com/"
pat = "default-token"
default_space_key = "ENG"

[work]
pat = "work-token"
page_size = 50
`)

	LoadProfile(path, "work")
	assert.Equal(t, "work", Profile())
	assert.Equal(t, "https://wiki.example.com", Get("base_url", ""))
	assert.Equal(t, "work-token", Get("pat", ""))
	assert.Equal(t, "ENG", Get("default_space_key", ""))
	assert.Equal(t, 50, GetInt("page_size", 0))

	LoadProfile(path, "missing")
	assert.Equal(t, "default-token", Get("pat", ""))
	assert.Equal(t, 25, GetInt("page_size", 0))
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
[default]
base_url = "https://file.example.com"
default_space_key = "FILE"
`)
	t.Setenv("CONFLUENCE_CONFIG_PATH", path)
	t.Setenv("CONFLUENCE_BASE_URL", "https://env.example.com")
	t.Setenv("CONFLUENCE_SPACE_KEY", "ENV")
	t.Setenv("CONFLUENCE_PARENT_ID", "42")

	Load()
	assert.Equal(t, "https://env.example.com", Get("base_url", ""))
	assert.Equal(t, "ENV", Get("default_space_key", ""))
	assert.Equal(t, "42", Get("parent_page_id", ""))
	assert.Equal(t, "", Get("config_path", ""))
}

func TestEmptyEnvironmentKeepsFileAndDefaults(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
[default]
pat = "file-token"
`)
	t.Setenv("CONFLUENCE_CONFIG_PATH", path)
	t.Setenv("CONFLUENCE_PAT", "")
	t.Setenv("CONFLUENCE_STATE_DIR", "")
	t.Setenv("CONFLUENCE_TIMEOUT", "")

	Load()
	assert.Equal(t, "file-token", Get("pat", ""))
	assert.Equal(t, filepath.Join(dir, "state", "confluence-cli"), Get("state_dir", ""))
	assert.Equal(t, 15, GetInt("timeout", 0))
}

func TestValidatorsFallBackToDefaults(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		value    string
		key      string
		expected string
	}{
		{"negative page size", "CONFLUENCE_PAGE_SIZE", "-3", "page_size", "25"},
		{"zero retries allowed", "CONFLUENCE_RETRIES", "0", "retries", "0"},
		{"bad provider", "CONFLUENCE_LLM_PROVIDER", "gpt", "llm_provider", "ollama"},
		{"provider case", "CONFLUENCE_LLM_PROVIDER", "OpenAI", "llm_provider", "openai"},
		{"bool yes", "CONFLUENCE_DEBUG", "yes", "debug", "true"},
		{"bad url", "CONFLUENCE_BASE_URL", "wiki.example.com", "base_url", ""},
		{"bad format", "CONFLUENCE_OUTPUT_FORMAT", "xml", "output_format", "table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.value)
			Load()
			assert.Equal(t, tt.expected, Get(tt.key, "unset"))
		})
	}
}

func TestRequire(t *testing.T) {
	isolate(t)
	Load()

	_, err := Require("pat")
	require.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "CONFLUENCE_PAT")

	Set("pat", "secret-token")
	val, err := Require("pat")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", val)
}

func TestSaveMergesProfile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
[default]
page_size = 10

[other]
pat = "keep-me"
`)

	err := Save(path, "work", map[string]string{
		"base_url":          "https://wiki.example.com",
		"pat":               "1234",
		"default_space_key": "ENG",
		"timeout":           "30",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]interface{}
	require.NoError(t, toml.Unmarshal(data, &raw))

	assert.Equal(t, "keep-me", raw["other"]["pat"])
	assert.Equal(t, "1234", raw["work"]["pat"])
	assert.EqualValues(t, 30, raw["work"]["timeout"])
	assert.EqualValues(t, 10, raw["default"]["page_size"])

	require.NoError(t, Save(path, "work", map[string]string{"timeout": ""}))
	LoadProfile(path, "work")
	assert.Equal(t, 15, GetInt("timeout", 0))
	assert.Equal(t, "1234", Get("pat", ""))
}

func TestRedactedMasksSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("CONFLUENCE_PAT", "abcdefghijkl")
	Load()

	var pat string
	for _, kv := range Redacted() {
		if kv.Key == "pat" {
			pat = kv.Value
		}
	}
	assert.Equal(t, "********ijkl", pat)
	assert.Equal(t, "****", Mask("abc"))
}
