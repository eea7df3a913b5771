package config

// LoggingConfig controls categorized file logging.
// When DebugMode is false nothing is written to disk.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode"`
	Level      string          `yaml:"level" json:"level"` // debug/info/warn/error
	JSONFormat bool            `yaml:"json_format" json:"json_format"`
	Categories map[string]bool `yaml:"categories" json:"categories"`
}

// DefaultLoggingConfig returns production defaults (logging off).
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		DebugMode: false,
		Level:     "info",
	}
}
