// Package output provides terminal output utilities.
package output

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the global logger instance.
var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
	})
}

// LogConfig controls logger construction.
type LogConfig struct {
	// Verbose enables debug-level logging.
	Verbose bool

	// Timestamps controls timestamp rendering. Nil defaults to false.
	Timestamps *bool
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// SetupLogging configures the logger based on verbosity.
func SetupLogging(cfg LogConfig) {
	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}

	timestamps := false
	if cfg.Timestamps != nil {
		timestamps = *cfg.Timestamps
	}

	Logger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: timestamps,
		ReportCaller:    cfg.Verbose,
	})
}

// Debug logs a debug message. Key-value arguments are redacted.
func Debug(msg string, keyvals ...interface{}) {
	Logger.Debug(msg, redactKeyvals(keyvals)...)
}

// Info logs an info message. Key-value arguments are redacted.
func Info(msg string, keyvals ...interface{}) {
	Logger.Info(msg, redactKeyvals(keyvals)...)
}

// Warn logs a warning message. Key-value arguments are redacted.
func Warn(msg string, keyvals ...interface{}) {
	Logger.Warn(msg, redactKeyvals(keyvals)...)
}

// Error logs an error message. Key-value arguments are redacted.
func Error(msg string, keyvals ...interface{}) {
	Logger.Error(msg, redactKeyvals(keyvals)...)
}

// Print prints a message to stdout without any formatting.
func Print(msg string) {
	os.Stdout.WriteString(msg)
}

// Println prints a message to stdout with a newline.
func Println(msg string) {
	os.Stdout.WriteString(msg + "\n")
}
