package config

import (
	"fmt"
	"time"
)

// LLMConfig configures the external NLP collaborator.
type LLMConfig struct {
	Provider string `yaml:"provider" json:"provider"` // gemini
	APIKey   string `yaml:"api_key" json:"api_key"`
	Model    string `yaml:"model" json:"model"`
	BaseURL  string `yaml:"base_url" json:"base_url"`

	// Timeout is a duration string, e.g. "90s".
	Timeout string `yaml:"timeout" json:"timeout"`

	MaxOutputTokens int `yaml:"max_output_tokens" json:"max_output_tokens"`
}

// DefaultLLMConfig returns sensible defaults for the Gemini provider.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:        "gemini",
		Model:           "gemini-2.5-flash",
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Timeout:         "90s",
		MaxOutputTokens: 8192,
	}
}

// TimeoutDuration parses the Timeout string, falling back to 90s.
func (c LLMConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 90 * time.Second
	}
	return d
}

// Validate checks the LLM section.
func (c LLMConfig) Validate() error {
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
		}
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("max_output_tokens must be non-negative")
	}
	return nil
}
