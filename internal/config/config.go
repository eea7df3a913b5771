// Package config loads and validates JACK configuration.
// Configuration lives in ~/.jack/config.yaml (or config.json); every
// field has a sensible default so a missing file is not an error.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Version is the build version reported by the CLI.
const Version = "1.0.0"

// Config holds all JACK configuration.
type Config struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`

	// LLM configures the external NLP collaborator.
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Memory configures the three-tier context manager.
	Memory MemoryConfig `yaml:"memory" json:"memory"`

	// Execution configures the executors.
	Execution ExecutionConfig `yaml:"execution" json:"execution"`

	// Logging configures categorized file logging.
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Name:      "jack",
		Version:   Version,
		LLM:       DefaultLLMConfig(),
		Memory:    DefaultMemoryConfig(),
		Execution: DefaultExecutionConfig(),
		Logging:   DefaultLoggingConfig(),
	}
}

// Home returns the JACK home directory (~/.jack), creating nothing.
func Home() (string, error) {
	if custom := os.Getenv("JACK_HOME"); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".jack"), nil
}

// Load reads configuration from dir/config.yaml or dir/config.json,
// layered over defaults, then applies environment overrides.
// A missing file yields defaults.
func Load(dir string) (*Config, error) {
	cfg := Default()

	yamlPath := filepath.Join(dir, "config.yaml")
	jsonPath := filepath.Join(dir, "config.json")

	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
	} else if data, err := os.ReadFile(jsonPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", jsonPath, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("JACK_API_KEY"); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("JACK_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("JACK_DB_PATH"); v != "" {
		c.Memory.DatabasePath = v
	}
	if os.Getenv("JACK_DEBUG") == "1" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	if err := c.Execution.Validate(); err != nil {
		return fmt.Errorf("execution: %w", err)
	}
	return nil
}

// Save writes the config as YAML to dir/config.yaml.
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}
