package config

import (
	"fmt"
	"time"
)

// MemoryConfig configures the three-tier context manager.
type MemoryConfig struct {
	// DatabasePath is where the long-term memory SQLite file lives.
	// Empty means <home>/memory.db.
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// RecentIntentCap bounds the per-client short-term ring.
	RecentIntentCap int `yaml:"recent_intent_cap" json:"recent_intent_cap"`

	// RecentIntentTTL is how long a short-term entry stays visible,
	// as a duration string.
	RecentIntentTTL string `yaml:"recent_intent_ttl" json:"recent_intent_ttl"`
}

// DefaultMemoryConfig returns the short-term defaults: 3 entries, 60s TTL.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		RecentIntentCap: 3,
		RecentIntentTTL: "60s",
	}
}

// TTLDuration parses RecentIntentTTL, falling back to 60s.
func (c MemoryConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.RecentIntentTTL)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// Validate checks the memory section.
func (c MemoryConfig) Validate() error {
	if c.RecentIntentCap < 1 {
		return fmt.Errorf("recent_intent_cap must be >= 1")
	}
	if c.RecentIntentTTL != "" {
		if _, err := time.ParseDuration(c.RecentIntentTTL); err != nil {
			return fmt.Errorf("invalid recent_intent_ttl %q: %w", c.RecentIntentTTL, err)
		}
	}
	return nil
}
