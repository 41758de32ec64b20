package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fireteam/roster/internal/compose"
	"github.com/fireteam/roster/internal/pipeline"
	"github.com/fireteam/roster/internal/roster"
)

// Message is the line printed for a fatal run error.
func Message(err error) string {
	switch {
	case errors.Is(err, roster.ErrIdentityNotFound):
		return "No guardian data found."
	case errors.Is(err, roster.ErrProfileUnavailable):
		return "No profile data found."
	case errors.Is(err, roster.ErrNoFireteam):
		return "No fireteam members found."
	case errors.Is(err, roster.ErrSelfNotInRoster):
		return "Guardian position not found."
	case errors.Is(err, compose.ErrNoCards):
		return "No captures were taken, nothing to combine."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func printSummary(out io.Writer, rep *pipeline.Report) {
	fmt.Fprintf(out, "Fireteam of %d, %d cards written to %s\n", len(rep.Roster.Members), len(rep.Cards), rep.OutputPath)
	for _, s := range rep.Roster.Skipped {
		fmt.Fprintf(out, "  skipped member %s: %v\n", s.MembershipID, s.Reason)
	}
	for _, o := range rep.FailedCaptures() {
		fmt.Fprintf(out, "  capture failed for position %d: %v\n", o.Rank, o.Err)
	}
	if rep.Assets != nil {
		for _, o := range rep.Assets.Outcomes {
			if o.EmblemErr != nil {
				fmt.Fprintf(out, "  emblem missing for position %d: %v\n", o.Rank, o.EmblemErr)
			}
			if o.GhostErr != nil {
				fmt.Fprintf(out, "  ghost missing for position %d: %v\n", o.Rank, o.GhostErr)
			}
		}
	}
}
