package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	// LogLevelQuiet suppresses all output except critical errors
	LogLevelQuiet LogLevel = "quiet"
	// LogLevelNormal shows standard operational messages
	LogLevelNormal LogLevel = "normal"
	// LogLevelVerbose shows detailed operational information
	LogLevelVerbose LogLevel = "verbose"
	// LogLevelDebug shows all debug information
	LogLevelDebug LogLevel = "debug"
)

// Logger provides structured logging capabilities
type Logger struct {
	logger *logrus.Logger
	level  LogLevel
}

// Config holds logger configuration
type Config struct {
	Level   LogLevel
	Output  io.Writer
	Format  string // "text" or "json"
	LogFile string
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(config Config) (*Logger, error) {
	logger := logrus.New()

	if config.Output != nil {
		logger.SetOutput(config.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	switch config.Level {
	case LogLevelQuiet:
		logger.SetLevel(logrus.ErrorLevel)
	case LogLevelNormal:
		logger.SetLevel(logrus.InfoLevel)
	case LogLevelVerbose:
		logger.SetLevel(logrus.DebugLevel)
	case LogLevelDebug:
		logger.SetLevel(logrus.TraceLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if config.LogFile != "" {
		file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFile, err)
		}

		if config.Output == nil {
			logger.SetOutput(io.MultiWriter(os.Stdout, file))
		} else {
			logger.SetOutput(io.MultiWriter(config.Output, file))
		}
	}

	return &Logger{
		logger: logger,
		level:  config.Level,
	}, nil
}

// NewDefaultLogger creates a logger with default configuration
func NewDefaultLogger() *Logger {
	logger, _ := NewLogger(Config{
		Level:  LogLevelNormal,
		Output: os.Stdout,
		Format: "text",
	})
	return logger
}

// NewNopLogger creates a logger that discards all output, for tests
func NewNopLogger() *Logger {
	logger, _ := NewLogger(Config{
		Level:  LogLevelQuiet,
		Output: io.Discard,
		Format: "text",
	})
	return logger
}

// WithFields returns a log entry with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.logger.WithFields(fields)
}

// WithField returns a log entry with a single additional field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.logger.WithField(key, value)
}

// Info logs at info level
func (l *Logger) Info(args ...interface{}) { l.logger.Info(args...) }

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...interface{}) { l.logger.Infof(format, args...) }

// Debug logs at debug level
func (l *Logger) Debug(args ...interface{}) { l.logger.Debug(args...) }

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...interface{}) { l.logger.Debugf(format, args...) }

// Warn logs at warning level
func (l *Logger) Warn(args ...interface{}) { l.logger.Warn(args...) }

// Warnf logs a formatted message at warning level
func (l *Logger) Warnf(format string, args ...interface{}) { l.logger.Warnf(format, args...) }

// Error logs at error level
func (l *Logger) Error(args ...interface{}) { l.logger.Error(args...) }

// Errorf logs a formatted message at error level
func (l *Logger) Errorf(format string, args ...interface{}) { l.logger.Errorf(format, args...) }

// Harness operation logging methods

// LogCommandExecution logs an external command execution
func (l *Logger) LogCommandExecution(argv []string, exitCode int, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": "command_execution",
		"command":   argv,
		"exit_code": exitCode,
		"duration":  duration.String(),
	}

	if err != nil {
		fields["error"] = err.Error()
		l.logger.WithFields(fields).Debug("Command failed")
	} else {
		l.logger.WithFields(fields).Debug("Command completed")
	}
}

// LogReadinessAttempt logs a single readiness probe against a service
func (l *Logger) LogReadinessAttempt(service string, attempt, maxAttempts int, ready bool) {
	l.logger.WithFields(logrus.Fields{
		"operation":    "readiness_probe",
		"service":      service,
		"attempt":      attempt,
		"max_attempts": maxAttempts,
		"ready":        ready,
	}).Debug("Readiness probe")
}

// LogScenarioTransition logs a scenario state transition
func (l *Logger) LogScenarioTransition(scenario, state string) {
	l.logger.WithFields(logrus.Fields{
		"operation": "scenario_transition",
		"scenario":  scenario,
		"state":     state,
	}).Info("Scenario state")
}
