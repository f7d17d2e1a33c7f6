// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"

	"github.com/jonathan/resume-importer/internal/extract"
)

// Profile provider names.
const (
	ProviderSlug = "slug"
	ProviderPage = "page"
)

// Defaults.
const (
	DefaultPort                  = 8080
	DefaultMaxUploadBytes        = 10 << 20
	DefaultExtractTimeoutSeconds = 60
)

// Config is loaded from a JSON or YAML file and overlaid with environment variables.
// All fields are optional.
type Config struct {
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // Postgres URL, or sqlite:<path>

	// Extraction
	ProfileProvider       string                `json:"profile_provider,omitempty" yaml:"profile_provider,omitempty"` // "slug" or "page"
	MaxUploadBytes        int64                 `json:"max_upload_bytes,omitempty" yaml:"max_upload_bytes,omitempty"`
	ExtractTimeoutSeconds int                   `json:"extract_timeout_seconds,omitempty" yaml:"extract_timeout_seconds,omitempty"`
	Fingerprints          []extract.Fingerprint `json:"fingerprints,omitempty" yaml:"fingerprints,omitempty"`

	// Behavior
	APIKey     string `json:"api_key,omitempty" yaml:"api_key,omitempty"`         // Gemini API key
	LLMRefine  bool   `json:"llm_refine,omitempty" yaml:"llm_refine,omitempty"`   // Refine heuristic records with the LLM
	UseBrowser bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"` // Render profile pages in a headless browser
	Verbose    bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:                  DefaultPort,
		ProfileProvider:       ProviderSlug,
		MaxUploadBytes:        DefaultMaxUploadBytes,
		ExtractTimeoutSeconds: DefaultExtractTimeoutSeconds,
	}
}

// LoadConfig loads configuration from a JSON file, or YAML for .yaml/.yml paths.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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

// Load reads path (when non-empty), applies the environment and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields with any of PORT, DATABASE_URL, GEMINI_API_KEY,
// PROFILE_PROVIDER, MAX_UPLOAD_BYTES, EXTRACT_TIMEOUT_SECONDS, USE_BROWSER,
// LLM_REFINE and VERBOSE that are set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("PROFILE_PROVIDER"); v != "" {
		c.ProfileProvider = strings.ToLower(strings.TrimSpace(v))
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"PORT", &c.Port},
		{"EXTRACT_TIMEOUT_SECONDS", &c.ExtractTimeoutSeconds},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %v", e.name, err)
			}
			*e.dst = n
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_BYTES: %v", err)
		}
		c.MaxUploadBytes = n
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"USE_BROWSER", &c.UseBrowser},
		{"LLM_REFINE", &c.LLMRefine},
		{"VERBOSE", &c.Verbose},
	}
	for _, e := range bools {
		if v := os.Getenv(e.name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %v", e.name, err)
			}
			*e.dst = b
		}
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("config error: 'max_upload_bytes' must be non-negative")
	}
	if c.ExtractTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'extract_timeout_seconds' must be non-negative")
	}

	switch c.ProfileProvider {
	case "", ProviderSlug, ProviderPage:
	default:
		return fmt.Errorf("config error: unknown profile_provider %q (want %q or %q)", c.ProfileProvider, ProviderSlug, ProviderPage)
	}

	seen := make(map[string]bool, len(c.Fingerprints))
	for i, fp := range c.Fingerprints {
		if fp.Name == "" {
			return fmt.Errorf("config error: fingerprint %d has no name", i)
		}
		if seen[fp.Name] {
			return fmt.Errorf("config error: duplicate fingerprint %q", fp.Name)
		}
		seen[fp.Name] = true
		if strings.TrimSpace(fp.FilenamePattern) == "" {
			return fmt.Errorf("config error: fingerprint %q has no filename_pattern", fp.Name)
		}
		if fp.BaselinePath == "" {
			return fmt.Errorf("config error: fingerprint %q has no baseline_path", fp.Name)
		}
	}

	if c.LLMRefine && c.APIKey == "" {
		return fmt.Errorf("config error: 'llm_refine' requires an API key (GEMINI_API_KEY)")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ProfileProvider == "" {
		result.ProfileProvider = defaults.ProfileProvider
	}
	if result.MaxUploadBytes == 0 {
		result.MaxUploadBytes = defaults.MaxUploadBytes
	}
	if result.ExtractTimeoutSeconds == 0 {
		result.ExtractTimeoutSeconds = defaults.ExtractTimeoutSeconds
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if len(result.Fingerprints) == 0 {
		result.Fingerprints = defaults.Fingerprints
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags and env always win for bools)

	return result
}

// ExtractTimeout returns the per-request extraction timeout.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutSeconds) * time.Second
}
