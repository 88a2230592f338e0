package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	logger *Logger
	once   sync.Once
)

// Logger wraps logrus with printf-style helpers and color support
type Logger struct {
	*logrus.Logger
	green  *color.Color
	cyan   *color.Color
	red    *color.Color
	yellow *color.Color
}

// New returns the process-wide logger, creating it on first use.
func New() *Logger {
	once.Do(func() {
		logger = &Logger{
			Logger: logrus.New(),
			green:  color.New(color.FgGreen),
			cyan:   color.New(color.FgCyan),
			red:    color.New(color.FgRed),
			yellow: color.New(color.FgYellow),
		}

		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006/01/02 15:04:05",
			FullTimestamp:   true,
			DisableSorting:  true,
		})

		if os.Getenv("DEBUG") == "true" {
			logger.SetLevel(logrus.DebugLevel)
			logger.Info("Debug logging enabled")
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
	})
	return logger
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	l := &Logger{
		Logger: logrus.New(),
		green:  color.New(color.FgGreen),
		cyan:   color.New(color.FgCyan),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
	}
	l.SetOutput(io.Discard)
	return l
}

// Plain turns off ANSI colors, for output that ends up in log files rather
// than a terminal.
func (l *Logger) Plain() {
	l.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006/01/02 15:04:05",
		FullTimestamp:   true,
		DisableSorting:  true,
		DisableColors:   true,
	})
	for _, c := range []*color.Color{l.green, l.cyan, l.red, l.yellow} {
		c.DisableColor()
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Logger.Debug(fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Logger.Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Logger.Warn(fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Logger.Error(fmt.Sprintf(format, args...))
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Logger.Fatal(fmt.Sprintf(format, args...))
}

// Success prints a green status line to the log output.
func (l *Logger) Success(format string, args ...interface{}) {
	l.green.Fprintf(l.Out, format+"\n", args...)
}

// Highlight returns s rendered in cyan.
func (l *Logger) Highlight(s string) string {
	return l.cyan.Sprint(s)
}

// Failure prints a red status line to the log output.
func (l *Logger) Failure(format string, args ...interface{}) {
	l.red.Fprintf(l.Out, format+"\n", args...)
}

// Notice prints a yellow status line to the log output.
func (l *Logger) Notice(format string, args ...interface{}) {
	l.yellow.Fprintf(l.Out, format+"\n", args...)
}

// IsDebugEnabled returns whether debug logging is enabled
func (l *Logger) IsDebugEnabled() bool {
	return l.GetLevel() == logrus.DebugLevel
}
