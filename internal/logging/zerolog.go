package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func parseZerologLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "TRACE":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewZerolog builds the console-format logger used for step traces. It writes
// to file, or stdout when file is nil, plus every extra writer.
func NewZerolog(file io.Writer, level, runID string, extra ...io.Writer) zerolog.Logger {
	out := io.Writer(osStdout)
	noColor := false
	if file != nil {
		out, noColor = file, true
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}}
	writers = append(writers, extra...)

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseZerologLevel(level)).
		With().Timestamp().Str("run_id", runID).Logger()
}

// StepLogger adapts zerolog.Logger to the key-value Logger interfaces of the
// roster and capture packages.
type StepLogger struct {
	logger zerolog.Logger
}

// NewStepLogger creates a new StepLogger wrapping a zerolog.Logger.
func NewStepLogger(logger zerolog.Logger) *StepLogger {
	return &StepLogger{logger: logger}
}

// Debug logs a debug message with optional key-value pairs.
func (l *StepLogger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(toFields(keysAndValues)).Msg(msg)
}

// Info logs an info message with optional key-value pairs.
func (l *StepLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(toFields(keysAndValues)).Msg(msg)
}

// Error logs an error message with optional key-value pairs.
func (l *StepLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(toFields(keysAndValues)).Msg(msg)
}

// toFields converts key-value pairs to a map for zerolog.
func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
