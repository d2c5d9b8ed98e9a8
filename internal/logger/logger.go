// Package logger provides the structured logger shared by the service.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"sundsvall.se/integration-eneo/internal/appinfo"
)

// New creates a logger writing to out at the given level name. Every entry
// carries the application id.
func New(out io.Writer, level string) *log.Logger {
	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           parseLevel(level),
	})
	return l.With("app", appinfo.AppID)
}

// Open is New with an optional log file. An empty path logs to stderr.
func Open(path string, level string) (*log.Logger, io.Closer, error) {
	if path == "" {
		return New(os.Stderr, level), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return New(f, level), f, nil
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return New(io.Discard, "error")
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
