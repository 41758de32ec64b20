package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Swapped by tests.
var osStdout = os.Stdout

// SlogManager manages the run's slog logger.
type SlogManager struct {
	logger *slog.Logger
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(level string) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: parseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup initializes logging. Records go to file, or to stdout when file is
// nil, and to every extra handler. When run has an ID each record carries
// run_id and elapsed_ms.
func (m *SlogManager) Setup(file io.Writer, level string, run Run, extra ...slog.Handler) {
	if file == nil {
		file = osStdout
	}
	handlers := append([]slog.Handler{slog.NewTextHandler(file, handlerOptions(level))}, extra...)

	var h slog.Handler = newFanout(handlers...)
	if run.ID != "" {
		h = newRunHandler(h, run)
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}
