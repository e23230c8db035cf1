// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Record store backends
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreSupabase = "supabase"
)

// Model providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Defaults
const (
	DefaultPort                = 8080
	DefaultLogLevel            = "info"
	DefaultModelTimeoutSeconds = 60
)

// Config represents the configuration that can be loaded from a JSON or YAML
// file. All fields are optional; missing values come from the environment or
// defaults.
type Config struct {
	// Model service
	APIKeys             []string `json:"api_keys,omitempty" yaml:"api_keys,omitempty"` // Ordered credential list
	Provider            string   `json:"provider,omitempty" yaml:"provider,omitempty"` // gemini or openai
	Model               string   `json:"model,omitempty" yaml:"model,omitempty"`       // Overrides the standard tier model
	BaseURL             string   `json:"base_url,omitempty" yaml:"base_url,omitempty"` // OpenAI-compatible endpoint
	ModelTimeoutSeconds int      `json:"model_timeout_seconds,omitempty" yaml:"model_timeout_seconds,omitempty"`
	QuotaPatterns       []string `json:"quota_patterns,omitempty" yaml:"quota_patterns,omitempty"`

	// Record store
	Store       string `json:"store,omitempty" yaml:"store,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	SupabaseURL string `json:"supabase_url,omitempty" yaml:"supabase_url,omitempty"`
	SupabaseKey string `json:"supabase_key,omitempty" yaml:"supabase_key,omitempty"`
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`

	// Behavior
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	LogLevel   string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	Verbose    bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`         // Print boxed summaries and debug logs
	UseBrowser bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"` // Headless browser fallback for job URLs
}

// LoadConfig loads configuration from a file. Files ending in .yaml or .yml
// are parsed as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables leave
// fields at their zero value; Defaults fills the rest.
func FromEnv() Config {
	cfg := Config{
		Provider:    strings.ToLower(os.Getenv("LLM_PROVIDER")),
		Model:       os.Getenv("LLM_MODEL"),
		BaseURL:     os.Getenv("OPENAI_BASE_URL"),
		Store:       strings.ToLower(os.Getenv("PROPOSAL_STORE")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		CatalogPath: os.Getenv("CATALOG_PATH"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if cfg.Provider == ProviderOpenAI {
		cfg.APIKeys = keysFromEnv("OPENAI_API_KEYS", "OPENAI_API_KEY")
	} else {
		cfg.APIKeys = keysFromEnv("GEMINI_API_KEYS", "GEMINI_API_KEY")
	}

	if v, err := strconv.Atoi(os.Getenv("MODEL_TIMEOUT_SECONDS")); err == nil {
		cfg.ModelTimeoutSeconds = v
	}
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = v
	}
	if patterns := os.Getenv("QUOTA_PATTERNS"); patterns != "" {
		cfg.QuotaPatterns = ParseList(patterns)
	}

	return cfg
}

func keysFromEnv(listVar, singleVar string) []string {
	if keys := ParseList(os.Getenv(listVar)); len(keys) > 0 {
		return keys
	}
	return ParseList(os.Getenv(singleVar))
}

// ParseList splits a comma-separated list, dropping blank entries and keeping order.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Defaults returns the built-in defaults.
func Defaults() Config {
	return Config{
		Provider:            ProviderGemini,
		ModelTimeoutSeconds: DefaultModelTimeoutSeconds,
		Port:                DefaultPort,
		LogLevel:            DefaultLogLevel,
	}
}

// Load reads the optional config file and merges it over the environment and
// defaults, then infers the store backend when none was named.
func Load(path string) (*Config, error) {
	var file Config
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		file = *loaded
	}

	env := FromEnv()
	envMerged := env.MergeWithDefaults(Defaults())
	merged := file.MergeWithDefaults(envMerged)
	merged.APIKeys = ParseList(strings.Join(merged.APIKeys, ","))
	merged.Store = merged.inferStore()
	return &merged, nil
}

func (c *Config) inferStore() string {
	switch {
	case c.Store != "":
		return c.Store
	case c.DatabaseURL != "":
		return StorePostgres
	case c.SupabaseURL != "":
		return StoreSupabase
	case c.CatalogPath != "":
		return StoreFile
	default:
		return StoreMemory
	}
}

// Validate checks that the configuration has valid values. An empty key list
// is not a configuration error; it surfaces on the first model call.
func (c *Config) Validate() error {
	switch c.Provider {
	case "", ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}

	if c.ModelTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'model_timeout_seconds' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.Store {
	case "", StoreMemory:
	case StoreFile:
		if c.CatalogPath == "" {
			return fmt.Errorf("config error: store %q requires 'catalog_path'", c.Store)
		}
		if _, err := os.Stat(c.CatalogPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: catalog file not found: %s", c.CatalogPath)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: store %q requires 'database_url'", c.Store)
		}
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("config error: store %q requires 'supabase_url' and 'supabase_key'", c.Store)
		}
	default:
		return fmt.Errorf("config error: unknown store %q", c.Store)
	}

	return nil
}

// ModelTimeout is the per-attempt model call timeout.
func (c *Config) ModelTimeout() time.Duration {
	if c.ModelTimeoutSeconds == 0 {
		return DefaultModelTimeoutSeconds * time.Second
	}
	return time.Duration(c.ModelTimeoutSeconds) * time.Second
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values over environment values and flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// Slices: use default if empty
	if len(result.APIKeys) == 0 {
		result.APIKeys = defaults.APIKeys
	}
	if len(result.QuotaPatterns) == 0 {
		result.QuotaPatterns = defaults.QuotaPatterns
	}

	// String fields: use default if empty
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.Store == "" {
		result.Store = defaults.Store
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SupabaseURL == "" {
		result.SupabaseURL = defaults.SupabaseURL
	}
	if result.SupabaseKey == "" {
		result.SupabaseKey = defaults.SupabaseKey
	}
	if result.CatalogPath == "" {
		result.CatalogPath = defaults.CatalogPath
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Int fields: use default if zero
	if result.ModelTimeoutSeconds == 0 {
		result.ModelTimeoutSeconds = defaults.ModelTimeoutSeconds
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
