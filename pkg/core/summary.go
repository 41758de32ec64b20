// pkg/core/summary.go
package core

import "time"

// RunSummary is the flattened outcome of one roster run, suitable for metrics sinks.
type RunSummary struct {
	RunID         string
	Player        string
	Members       int
	Skipped       int
	AssetFailures int
	Captured      int
	CaptureFailed int
	Cards         int
	OutputPath    string
	Duration      time.Duration
	StartedAt     time.Time
	Succeeded     bool
}
