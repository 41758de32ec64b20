package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stdoutToFile points osStdout at a temp file for the test and returns a reader
// for what was written.
func stdoutToFile(t *testing.T) func() string {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "stdout"))
	require.NoError(t, err)

	orig := osStdout
	osStdout = f
	t.Cleanup(func() {
		osStdout = orig
		f.Close()
	})

	return func() string {
		data, err := os.ReadFile(f.Name())
		require.NoError(t, err)
		return string(data)
	}
}

func TestSetup_LogFile(t *testing.T) {
	stdout := stdoutToFile(t)

	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", Run{})
	m.Logger().Info("Roster resolved", "members", 3)

	assert.Contains(t, file.String(), "Logging initialized")
	assert.Contains(t, file.String(), "members=3")
	assert.Empty(t, stdout(), "a log file keeps the console clear for the banner and summary")
}

func TestSetup_ConsoleWithoutFile(t *testing.T) {
	stdout := stdoutToFile(t)

	m := NewSlogManager()
	m.Setup(nil, "info", Run{})
	m.Logger().Warn("Label font unavailable, using built-in face")

	assert.Contains(t, stdout(), "Label font unavailable")
}

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var file bytes.Buffer
			m := NewSlogManager()
			m.Setup(&file, tt.level, Run{})
			m.Logger().Debug("step traced")
			m.Logger().Warn("member skipped")

			assert.Equal(t, tt.wantDebug, strings.Contains(file.String(), "step traced"))
			assert.Equal(t, tt.wantWarn, strings.Contains(file.String(), "member skipped"))
		})
	}
}

func TestSetup_TimestampsInUTC(t *testing.T) {
	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", Run{})

	line := strings.SplitN(file.String(), "\n", 2)[0]
	require.True(t, strings.HasPrefix(line, "time="), line)
	stamp := strings.Fields(strings.TrimPrefix(line, "time="))[0]
	parsed, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Location())
}

func TestSetup_SecondCallSwitchesFile(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", Run{})
	m.Setup(&second, "info", Run{})
	m.Logger().Info("after switch")

	assert.NotContains(t, first.String(), "after switch")
	assert.Contains(t, second.String(), "after switch")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	assert.Same(t, slog.Default(), NewSlogManager().Logger())
}

func TestSetup_RunTagsEverySink(t *testing.T) {
	var file, gelf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", Run{ID: "run-42", Start: time.Now()}, NewGELFHandler(&gelf, "info"))

	m.Logger().Info("Combined image written", "cards", 3)

	assert.Contains(t, file.String(), "run_id=run-42")
	assert.Contains(t, file.String(), "elapsed_ms=")

	lines := strings.Split(strings.TrimSpace(gelf.String()), "\n")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	assert.Equal(t, "Combined image written", rec["msg"])
	assert.Equal(t, "run-42", rec["run_id"])
	assert.Equal(t, float64(3), rec["cards"])
}

func TestSetup_NoRunID(t *testing.T) {
	var file bytes.Buffer
	m := NewSlogManager()
	m.Setup(&file, "info", Run{Start: time.Now()})
	m.Logger().Info("untagged")

	assert.NotContains(t, file.String(), "run_id")
}

func TestRunHandler_Elapsed(t *testing.T) {
	start := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	h := newRunHandler(slog.NewTextHandler(&buf, nil), Run{ID: "r1", Start: start})
	h.now = func() time.Time { return start.Add(2500 * time.Millisecond) }

	slog.New(h.WithAttrs([]slog.Attr{slog.Int("rank", 2)})).Info("captured")

	assert.Contains(t, buf.String(), "rank=2")
	assert.Contains(t, buf.String(), "run_id=r1")
	assert.Contains(t, buf.String(), "elapsed_ms=2500")
	assert.Same(t, h, h.WithGroup(""))
}

// failingSink stands in for a GELF writer whose socket has gone away.
type failingSink struct{ slog.Handler }

func (failingSink) Enabled(context.Context, slog.Level) bool { return true }

func (failingSink) Handle(context.Context, slog.Record) error {
	return errors.New("udp: connection refused")
}

func TestFanout_FailingSinkDoesNotBlockFile(t *testing.T) {
	var file bytes.Buffer
	f := newFanout(failingSink{}, nil, slog.NewTextHandler(&file, nil))
	require.Len(t, f, 2)

	err := f.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "kept", 0))

	assert.EqualError(t, err, "udp: connection refused")
	assert.Contains(t, file.String(), "msg=kept")
}

func TestFanout_EnabledByAnySink(t *testing.T) {
	ctx := context.Background()
	file := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	gelf := NewGELFHandler(&bytes.Buffer{}, "debug")

	assert.False(t, newFanout(file).Enabled(ctx, slog.LevelDebug))
	assert.True(t, newFanout(file, gelf).Enabled(ctx, slog.LevelDebug))
	assert.False(t, newFanout().Enabled(ctx, slog.LevelError))
}

func TestFanout_AttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	f := newFanout(slog.NewTextHandler(&a, nil), slog.NewTextHandler(&b, nil))

	slog.New(f.WithAttrs([]slog.Attr{slog.String("phase", "ghosts")}).WithGroup("member")).
		Info("download failed", "rank", 3)

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "phase=ghosts")
		assert.Contains(t, out, "member.rank=3")
	}
	assert.Equal(t, f, f.WithGroup(""))
}

func TestGELFHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewGELFHandler(&buf, "warn"))
	logger.Info("dropped")
	logger.Warn("shipped", "rank", 2)

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"rank":2`)
}
