package pipeline

import (
	"time"

	"github.com/fireteam/roster/internal/assets"
	"github.com/fireteam/roster/internal/capture"
	"github.com/fireteam/roster/internal/roster"
	"github.com/fireteam/roster/pkg/core"
)

// Report is everything one run produced, including partial results of a
// failed run.
type Report struct {
	RunID      string
	Player     core.Identity
	StartedAt  time.Time
	Duration   time.Duration
	Roster     *roster.Roster
	Assets     *assets.Result
	Captures   []capture.Outcome
	Cards      []int
	Dropped    map[int]error
	OutputPath string
	Err        error
}

// FailedCaptures returns the outcomes that did not produce a capture.
func (r *Report) FailedCaptures() []capture.Outcome {
	var failed []capture.Outcome
	for _, o := range r.Captures {
		if o.State != capture.Captured {
			failed = append(failed, o)
		}
	}
	return failed
}

// Summary flattens the report for metrics sinks.
func (r *Report) Summary() core.RunSummary {
	s := core.RunSummary{
		RunID:      r.RunID,
		Player:     r.Player.String(),
		Cards:      len(r.Cards),
		Duration:   r.Duration,
		StartedAt:  r.StartedAt,
		Succeeded:  r.Err == nil,
		OutputPath: r.OutputPath,
	}
	if r.Roster != nil {
		s.Members = len(r.Roster.Members)
		s.Skipped = len(r.Roster.Skipped)
	}
	if r.Assets != nil {
		s.AssetFailures = r.Assets.Failures()
	}
	failed := len(r.FailedCaptures())
	s.CaptureFailed = failed
	s.Captured = len(r.Captures) - failed
	return s
}
