// Package logging provides categorized file-based logging for cloutfarm.
// Logs are written per category under <data-dir>/logs, one file per day.
// When debug mode is off nothing is written at all.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup, recovery
	CategoryScheduler  Category = "scheduler"  // Timer registry, ticks
	CategoryPosting    Category = "posting"    // Posting pipeline
	CategoryCommenting Category = "commenting" // Commenting pipeline
	CategoryAccounts   Category = "accounts"   // Account allocation
	CategoryStore      Category = "store"      // Datastore operations
	CategoryLLM        Category = "llm"        // Text-generation calls
	CategoryBrowser    Category = "browser"    // Browser automation
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Settings mirrors config.LoggingConfig to avoid a circular import.
type Settings struct {
	DebugMode  bool
	Level      string
	Categories map[string]bool
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	settings  Settings
	setMu     sync.RWMutex
	logLevel  int
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

// Initialize sets the logs directory. Call once at startup before Configure.
func Initialize(dir string) {
	logsDir = filepath.Join(dir, "logs")
}

// Configure applies logging settings. Safe to call again on config reload;
// already-open log files stay open, but level and category filters apply
// immediately.
func Configure(s Settings) {
	setMu.Lock()
	defer setMu.Unlock()
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
}

// IsCategoryEnabled returns whether a category is currently enabled.
func IsCategoryEnabled(category Category) bool {
	setMu.RLock()
	defer setMu.RUnlock()

	if !settings.DebugMode {
		return false
	}
	if settings.Categories == nil {
		return true
	}
	enabled, exists := settings.Categories[string(category)]
	if !exists {
		return true
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
	if l, ok := loggers[category]; ok {
		return l
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not create %s: %v\n", logsDir, err)
		return &Logger{category: category}
	}

	// Date prefix keeps rotation trivial.
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

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always written if the logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

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
// CONVENIENCE FUNCTIONS - quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// Scheduler logs to the scheduler category.
func Scheduler(format string, args ...interface{}) {
	Get(CategoryScheduler).Info(format, args...)
}

// SchedulerDebug logs debug to the scheduler category.
func SchedulerDebug(format string, args ...interface{}) {
	Get(CategoryScheduler).Debug(format, args...)
}

// Posting logs to the posting category.
func Posting(format string, args ...interface{}) {
	Get(CategoryPosting).Info(format, args...)
}

// PostingDebug logs debug to the posting category.
func PostingDebug(format string, args ...interface{}) {
	Get(CategoryPosting).Debug(format, args...)
}

// PostingWarn logs warning to the posting category.
func PostingWarn(format string, args ...interface{}) {
	Get(CategoryPosting).Warn(format, args...)
}

// Commenting logs to the commenting category.
func Commenting(format string, args ...interface{}) {
	Get(CategoryCommenting).Info(format, args...)
}

// CommentingDebug logs debug to the commenting category.
func CommentingDebug(format string, args ...interface{}) {
	Get(CategoryCommenting).Debug(format, args...)
}

// CommentingWarn logs warning to the commenting category.
func CommentingWarn(format string, args ...interface{}) {
	Get(CategoryCommenting).Warn(format, args...)
}

// Accounts logs to the accounts category.
func Accounts(format string, args ...interface{}) {
	Get(CategoryAccounts).Info(format, args...)
}

// Store logs to the store category.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category.
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// LLM logs to the llm category.
func LLM(format string, args ...interface{}) {
	Get(CategoryLLM).Info(format, args...)
}

// Browser logs to the browser category.
func Browser(format string, args ...interface{}) {
	Get(CategoryBrowser).Info(format, args...)
}

// BrowserError logs error to the browser category.
func BrowserError(format string, args ...interface{}) {
	Get(CategoryBrowser).Error(format, args...)
}

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

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
