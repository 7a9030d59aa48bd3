package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/alkotekaworker/logger"
)

// LoggerInterface defines the interface for logger implementations
type LoggerInterface interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger writes through the structured logger and, when errorFile is set,
// also appends every error to that file for later triage.
type Logger struct {
	errorFile string
	mu        sync.Mutex
	log       *logger.Logger
}

// NewLogger creates a new logger instance. An empty errorFile disables the file.
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
		log:       logger.ForWorker(),
	}
}

// LogError logs an error with the component name and timestamp
func (l *Logger) LogError(component string, err error) {
	l.log.Error().Str("source", component).Err(err).Msg("Error")

	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		l.log.Warn().Err(fileErr).Str("file", l.errorFile).Msg("Failed to open error log")
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, component, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}
