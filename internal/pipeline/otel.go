package pipeline

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fireteam/roster/internal/pipeline"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type runMetrics struct {
	skipped       metric.Int64Counter
	assetFailures metric.Int64Counter
	captures      metric.Int64Counter
	duration      metric.Float64Histogram
}

// newRunMetrics uses the global OTel meter (no-op if not configured).
func newRunMetrics() (*runMetrics, error) {
	m := meter()
	var (
		rm  runMetrics
		err error
	)

	rm.skipped, err = m.Int64Counter(
		"fireteam.members.skipped",
		metric.WithDescription("Party members dropped during roster resolution"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create skipped counter: %w", err)
	}

	rm.assetFailures, err = m.Int64Counter(
		"fireteam.assets.failed",
		metric.WithDescription("Emblem and ghost artworks that could not be prepared"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset failure counter: %w", err)
	}

	rm.captures, err = m.Int64Counter(
		"fireteam.capture.outcomes",
		metric.WithDescription("Capture sequence outcomes by state"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture counter: %w", err)
	}

	rm.duration, err = m.Float64Histogram(
		"fireteam.run.duration",
		metric.WithDescription("Wall time of a roster run"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return &rm, nil
}

func (rm *runMetrics) record(rep *Report) {
	ctx := context.Background()
	if rep.Roster != nil {
		rm.skipped.Add(ctx, int64(len(rep.Roster.Skipped)))
	}
	if rep.Assets != nil {
		rm.assetFailures.Add(ctx, int64(rep.Assets.Failures()))
	}
	for _, o := range rep.Captures {
		rm.captures.Add(ctx, 1, metric.WithAttributes(attribute.String("state", o.State.String())))
	}
	rm.duration.Record(ctx, float64(rep.Duration.Milliseconds()))
}
