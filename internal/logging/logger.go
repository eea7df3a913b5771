// Package logging provides config-driven categorized file-based logging
// for JACK. Logs are written to .jack/logs/ with separate files per
// category. Logging is controlled by debug_mode in .jack/config.yaml -
// when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot         Category = "boot"         // Boot/initialization
	CategoryOrchestrator Category = "orchestrator" // Task lifecycle, interruption
	CategoryParser       Category = "parser"       // Intent parsing, ack policy
	CategoryExecutor     Category = "executor"     // Group scheduling, conditionals
	CategoryPlugins      Category = "plugins"      // Plugin registration and calls
	CategoryContext      Category = "context"      // Short-term/session/long-term memory
	CategoryModality     Category = "modality"     // Presentation decisions
	CategoryStore        Category = "store"        // SQLite persistence
	CategoryAPI          Category = "api"          // External NLP calls
	CategorySession      Category = "session"      // Client connect/disconnect
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Settings mirrors the relevant parts of config.LoggingConfig to avoid
// a circular import with internal/config.
type Settings struct {
	DebugMode  bool
	Categories map[string]bool
	Level      string
	JSONFormat bool
}

// entry is a structured JSON log record.
type entry struct {
	Timestamp int64          `json:"ts"` // Unix milliseconds
	Category  string         `json:"cat"`
	Level     string         `json:"lvl"`
	Message   string         `json:"msg"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers    = make(map[Category]*Logger)
	loggersMu  sync.RWMutex
	logsDir    string
	settings   Settings
	settingsMu sync.RWMutex
	logLevel   int
)

// Initialize sets up the logging directory from the given settings.
// Should be called once at startup with the JACK home path (usually
// ~/.jack). A no-op when debug mode is disabled.
func Initialize(home string, s Settings) error {
	if home == "" {
		return fmt.Errorf("home path required")
	}

	settingsMu.Lock()
	settings = s
	switch s.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	settingsMu.Unlock()

	if !s.DebugMode {
		return nil // Silent no-op in production mode
	}

	logsDir = filepath.Join(home, "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== JACK logging initialized ===")
	boot.Info("Logs directory: %s", logsDir)
	boot.Info("Log level: %s", s.Level)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settings.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	settingsMu.RLock()
	defer settingsMu.RUnlock()

	if !settings.DebugMode {
		return false
	}
	if settings.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := settings.Categories[string(category)]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) logJSON(level, msg string) {
	e := entry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
	}
	data, err := json.Marshal(e)
	if err != nil {
		l.logger.Printf("[%s] %s", level, msg) // Fallback to text
		return
	}
	l.logger.Printf("%s", data)
}

func (l *Logger) write(level int, tag, format string, args ...any) {
	if l.logger == nil || logLevel > level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	settingsMu.RLock()
	jsonFormat := settings.JSONFormat
	settingsMu.RUnlock()
	if jsonFormat {
		l.logJSON(tag, msg)
	} else {
		l.logger.Printf("[%s] %s", tag, msg)
	}
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...any) { l.write(LevelDebug, "DEBUG", format, args...) }

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...any) { l.write(LevelInfo, "INFO", format, args...) }

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...any) { l.write(LevelWarn, "WARN", format, args...) }

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...any) { l.write(LevelError, "ERROR", format, args...) }

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first.
// These are no-ops if the category is disabled.
// =============================================================================

// Orchestrator logs to the orchestrator category.
func Orchestrator(format string, args ...any) { Get(CategoryOrchestrator).Info(format, args...) }

// OrchestratorDebug logs debug to the orchestrator category.
func OrchestratorDebug(format string, args ...any) { Get(CategoryOrchestrator).Debug(format, args...) }

// Parser logs to the parser category.
func Parser(format string, args ...any) { Get(CategoryParser).Info(format, args...) }

// ParserDebug logs debug to the parser category.
func ParserDebug(format string, args ...any) { Get(CategoryParser).Debug(format, args...) }

// Executor logs to the executor category.
func Executor(format string, args ...any) { Get(CategoryExecutor).Info(format, args...) }

// ExecutorDebug logs debug to the executor category.
func ExecutorDebug(format string, args ...any) { Get(CategoryExecutor).Debug(format, args...) }

// Plugins logs to the plugins category.
func Plugins(format string, args ...any) { Get(CategoryPlugins).Info(format, args...) }

// PluginsDebug logs debug to the plugins category.
func PluginsDebug(format string, args ...any) { Get(CategoryPlugins).Debug(format, args...) }

// Context logs to the context category.
func Context(format string, args ...any) { Get(CategoryContext).Info(format, args...) }

// ContextDebug logs debug to the context category.
func ContextDebug(format string, args ...any) { Get(CategoryContext).Debug(format, args...) }

// Store logs to the store category.
func Store(format string, args ...any) { Get(CategoryStore).Info(format, args...) }

// StoreDebug logs debug to the store category.
func StoreDebug(format string, args ...any) { Get(CategoryStore).Debug(format, args...) }

// API logs to the api category.
func API(format string, args ...any) { Get(CategoryAPI).Info(format, args...) }

// APIDebug logs debug to the api category.
func APIDebug(format string, args ...any) { Get(CategoryAPI).Debug(format, args...) }

// APIError logs error to the api category.
func APIError(format string, args ...any) { Get(CategoryAPI).Error(format, args...) }

// Modality logs to the modality category.
func Modality(format string, args ...any) { Get(CategoryModality).Info(format, args...) }

// ModalityDebug logs debug to the modality category.
func ModalityDebug(format string, args ...any) { Get(CategoryModality).Debug(format, args...) }

// Session logs to the session category.
func Session(format string, args ...any) { Get(CategorySession).Info(format, args...) }

// Boot logs to the boot category.
func Boot(format string, args ...any) { Get(CategoryBoot).Info(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
