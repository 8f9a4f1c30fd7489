// Package config loads cloutfarm configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all cloutfarm configuration.
type Config struct {
	Name    string `yaml:"name"`
	DataDir string `yaml:"data_dir"`

	Store   StoreConfig   `yaml:"store"`
	LLM     LLMConfig     `yaml:"llm"`
	Browser BrowserConfig `yaml:"browser"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig configures the SQLite datastore.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LLMConfig configures the text-generation collaborator.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// BrowserConfig configures the browser-automation collaborator.
type BrowserConfig struct {
	Headless            bool   `yaml:"headless"`
	Bin                 string `yaml:"bin"`
	NavigationTimeoutMs int    `yaml:"navigation_timeout_ms"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "cloutfarm",
		DataDir: "data",

		Store: StoreConfig{
			DatabasePath: filepath.Join("data", "cloutfarm.db"),
		},

		LLM: LLMConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "120s",
		},

		Browser: BrowserConfig{
			Headless:            true,
			NavigationTimeoutMs: 30000,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if path := os.Getenv("CLOUTFARM_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if dir := os.Getenv("CLOUTFARM_DATA"); dir != "" {
		c.DataDir = dir
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// NavigationTimeout returns the browser navigation timeout.
func (c *Config) NavigationTimeout() time.Duration {
	if c.Browser.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Browser.NavigationTimeoutMs) * time.Millisecond
}

// Validate checks settings needed before live publishing or generation.
func (c *Config) Validate() error {
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path not configured")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set GEMINI_API_KEY or llm.api_key)")
	}
	return nil
}
