// Package config provides configuration loading for the Confluence CLI.
//
// Values are resolved as defaults, then CONFLUENCE_* environment variables,
// then the selected profile of the TOML config file, then the environment
// again so it always wins. Profiles are top-level TOML tables; keys found in
// [default] apply to every profile.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cristianoliveira/confluence-cli/internal/colors"
	"github.com/pelletier/go-toml/v2"
)

// File permission constants
const (
	FileModeDir os.FileMode = 0755
	// FileModeSecret is used for the config file because it stores the PAT.
	FileModeSecret os.FileMode = 0600

	FileExtTOML = ".toml"

	// DefaultProfile is the table used when no profile is selected.
	DefaultProfile = "default"

	envPrefix = "CONFLUENCE_"
)

// ErrMissing is returned by Require when a key has no value.
var ErrMissing = errors.New("missing required configuration")

// envAliases maps short environment names onto config keys.
var envAliases = map[string]string{
	"space_key": "default_space_key",
	"parent_id": "parent_page_id",
	"token":     "pat",
}

// envReserved are CONFLUENCE_* variables that select the file, not values in it.
var envReserved = map[string]bool{
	"config_path": true,
	"profile":     true,
}

// secretKeys are masked by Redacted.
var secretKeys = map[string]bool{
	"pat":     true,
	"api_key": true,
}

var (
	config     map[string]string
	configMap  map[string]string
	configPath string
	profile    string
	mu         sync.RWMutex
)

func init() {
	initValidators()
}

// Load initializes configuration from the default location and profile.
func Load() {
	LoadProfile("", "")
}

// LoadProfile initializes configuration using an explicit config file path and
// profile name. Empty values fall back to CONFLUENCE_CONFIG_PATH and
// CONFLUENCE_PROFILE, then to the XDG location and the default profile.
func LoadProfile(path, profileName string) {
	mu.Lock()
	defer mu.Unlock()

	config = make(map[string]string)
	configMap = make(map[string]string)

	setDefaults()
	loadFromEnv()
	configPath = resolvePath(path)
	profile = resolveProfile(profileName)
	loadFromFile()
	loadFromEnv()
	validate()
	createSampleConfig()
}

func setDefaults() {
	home, _ := os.UserHomeDir()
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(home, ".config")
	}
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		xdgStateHome = filepath.Join(home, ".local", "state")
	}

	configDir := filepath.Join(xdgConfigHome, "confluence-cli")
	stateDir := filepath.Join(xdgStateHome, "confluence-cli")

	setDefault("config_dir", configDir)
	setDefault("state_dir", stateDir)
	setDefault("drafts_dir", filepath.Join(stateDir, "drafts"))
	setDefault("base_url", "")
	setDefault("pat", "")
	setDefault("default_space_key", "")
	setDefault("parent_page_id", "")
	setDefault("timeout", "15")
	setDefault("retries", "3")
	setDefault("backoff_ms", "500")
	setDefault("page_size", "25")
	setDefault("markdown_style", "dark")
	setDefault("pandoc_path", "pandoc")
	setDefault("convert_engine", "auto")
	setDefault("editor", "")
	setDefault("output_format", "table")
	setDefault("llm_provider", "ollama")
	setDefault("model", "llama3.1")
	setDefault("ollama_base", "http://localhost:11434")
	setDefault("api_base", "")
	setDefault("api_key", "")
	setDefault("logging_enabled", "false")
	setDefault("logging_level", "info")
	setDefault("logging_max_files", "10")
	setDefault("debug", "false")
	setDefault("quiet", "false")
}

func setDefault(key, value string) {
	config[key] = value
	configMap[key] = value
}

func resolvePath(path string) string {
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG_PATH")
	}
	if path == "" {
		path = filepath.Join(config["config_dir"], "config"+FileExtTOML)
	}
	return path
}

func resolveProfile(name string) string {
	if name == "" {
		name = os.Getenv(envPrefix + "PROFILE")
	}
	if name == "" {
		return DefaultProfile
	}
	return name
}

// readRaw parses the config file into its raw TOML tree.
// A missing file yields an empty tree.
func readRaw(path string) (map[string]interface{}, error) {
	raw := make(map[string]interface{})
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	if strings.ToLower(filepath.Ext(path)) != FileExtTOML {
		return nil, fmt.Errorf("unsupported config file extension: %s", path)
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return raw, nil
}

func loadFromFile() {
	raw, err := readRaw(configPath)
	if err != nil {
		colors.Warning(err.Error())
		return
	}

	// Bare top-level keys behave like [default].
	for k, v := range raw {
		if _, isTable := v.(map[string]interface{}); isTable {
			continue
		}
		mergeValue(k, v)
	}
	mergeTable(raw, DefaultProfile)
	if profile != DefaultProfile {
		if _, ok := raw[profile]; !ok {
			colors.Debug(fmt.Sprintf("profile %q not found in %s, using %q", profile, configPath, DefaultProfile))
		}
		mergeTable(raw, profile)
	}
}

func mergeTable(raw map[string]interface{}, name string) {
	table, ok := raw[name].(map[string]interface{})
	if !ok {
		return
	}
	for k, v := range table {
		mergeValue(k, v)
	}
}

func mergeValue(k string, v interface{}) {
	key := strings.ToLower(k)
	converted, ok := coerceConfigValue(v)
	if !ok {
		colors.Warning(fmt.Sprintf("unsupported config value type for %s: %T", key, v))
		return
	}
	config[key] = converted
}

// coerceConfigValue converts a configuration value to its string representation.
func coerceConfigValue(value interface{}) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}

func loadFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], envPrefix))
		if envReserved[key] {
			continue
		}
		if alias, ok := envAliases[key]; ok {
			key = alias
		}
		config[key] = parts[1]
	}
}

func validate() {
	for key, value := range config {
		validator := getValidator(key)
		if validator == nil {
			continue
		}
		defaultValue := configMap[key]
		normalizedValue, err := validator(key, value, defaultValue)
		if err != nil {
			colors.Warning(fmt.Sprintf("validation error for %s: %v, using default: %s", key, err, defaultValue))
			config[key] = defaultValue
		} else {
			config[key] = normalizedValue
		}
	}
}

func valueToInterface(val string) interface{} {
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return val
}

// sampleKeys are written to a fresh config file.
var sampleKeys = []string{"timeout", "retries", "page_size", "markdown_style", "llm_provider", "model"}

func createSampleConfig() {
	if configPath == "" {
		return
	}
	if _, err := os.Stat(configPath); err == nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(configPath), FileModeDir); err != nil {
		colors.Debug(fmt.Sprintf("unable to create config dir: %v", err))
		return
	}

	table := make(map[string]interface{}, len(sampleKeys))
	for _, k := range sampleKeys {
		table[k] = valueToInterface(configMap[k])
	}
	data, err := toml.Marshal(map[string]interface{}{DefaultProfile: table})
	if err != nil {
		colors.Warning(fmt.Sprintf("unable to marshal sample config: %v", err))
		return
	}
	header := "# confluence-cli configuration\n# Run `confluence auth login` to add base_url and pat.\n# Additional profiles are separate tables, e.g. [work].\n\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), FileModeSecret); err != nil {
		colors.Warning(fmt.Sprintf("unable to write sample config to %s: %v", configPath, err))
	}
}

// Save merges updates into the given profile table of the config file at path
// and writes it back with owner-only permissions. Empty update values remove
// the key from the profile.
func Save(path, profileName string, updates map[string]string) error {
	if path == "" {
		path = Path()
	}
	if profileName == "" {
		profileName = DefaultProfile
	}
	raw, err := readRaw(path)
	if err != nil {
		return err
	}
	table, ok := raw[profileName].(map[string]interface{})
	if !ok {
		table = make(map[string]interface{})
	}
	for k, v := range updates {
		key := strings.ToLower(k)
		if v == "" {
			delete(table, key)
			continue
		}
		if secretKeys[key] || key == "base_url" || strings.HasSuffix(key, "_key") || strings.HasSuffix(key, "_id") {
			table[key] = v
			continue
		}
		table[key] = valueToInterface(v)
	}
	raw[profileName] = table

	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), FileModeDir); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, FileModeSecret); err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}
	return nil
}

// Path returns the config file path selected by the last Load.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	if configPath == "" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "confluence-cli", "config"+FileExtTOML)
	}
	return configPath
}

// Profile returns the active profile name.
func Profile() string {
	mu.RLock()
	defer mu.RUnlock()
	if profile == "" {
		return DefaultProfile
	}
	return profile
}

// Get returns a configuration value or default.
func Get(key, defaultValue string) string {
	mu.RLock()
	defer mu.RUnlock()
	if val, ok := config[key]; ok {
		return val
	}
	return defaultValue
}

// Require returns a non-empty value for key or an error naming the key and
// the environment variable that can provide it.
func Require(key string) (string, error) {
	val := strings.TrimSpace(Get(key, ""))
	if val == "" {
		return "", fmt.Errorf("%w: %s (set it with `confluence auth login` or %s%s)", ErrMissing, key, envPrefix, strings.ToUpper(key))
	}
	return val, nil
}

// GetInt returns a configuration value as integer, or default.
func GetInt(key string, defaultValue int) int {
	mu.RLock()
	defer mu.RUnlock()
	val, ok := config[key]
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetBool returns a configuration value as boolean, or default.
func GetBool(key string, defaultValue bool) bool {
	mu.RLock()
	defer mu.RUnlock()
	val, ok := config[key]
	if !ok {
		return defaultValue
	}
	switch normalizeBool(val) {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}

// Set overrides a value for the current process, used for command-line flags.
func Set(key, value string) {
	mu.Lock()
	defer mu.Unlock()
	if config == nil {
		config = make(map[string]string)
	}
	config[key] = value
}

// Redacted returns a sorted snapshot of the effective configuration with
// secrets masked.
func Redacted() []KeyValue {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]KeyValue, 0, len(config))
	for k, v := range config {
		if secretKeys[k] && v != "" {
			v = Mask(v)
		}
		out = append(out, KeyValue{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// KeyValue is a single effective configuration entry.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}
