// Package pipeline runs one roster build: resolve the fireteam, prepare
// artwork and screen captures side by side, then composite the result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fireteam/roster/internal/assets"
	"github.com/fireteam/roster/internal/capture"
	"github.com/fireteam/roster/internal/compose"
	"github.com/fireteam/roster/internal/imaging"
	"github.com/fireteam/roster/internal/roster"
	"github.com/fireteam/roster/internal/workspace"
	"github.com/fireteam/roster/pkg/core"
)

// StepLogger is the key-value logger shared by the resolver and the capture sequencer.
type StepLogger interface {
	roster.Logger
	capture.Logger
}

// Options wires a Pipeline.
type Options struct {
	RunID string

	Platform roster.Platform
	Source   assets.Source
	Injector capture.Injector
	Labeler  *imaging.Labeler

	RosterConcurrency int
	Assets            assets.Config
	Capture           capture.Config
	Sleep             capture.SleepFunc

	WorkspaceDir string
	OutputPath   string
	// RunTimeout bounds the whole run. Zero means no deadline.
	RunTimeout time.Duration

	Logger     *slog.Logger
	StepLogger StepLogger
}

// Pipeline runs roster builds.
type Pipeline struct {
	opts     Options
	resolver *roster.Resolver
	ws       *workspace.Workspace
	logger   *slog.Logger
	metrics  *runMetrics
}

// New creates a pipeline. A missing RunID is generated.
func New(opts Options) (*Pipeline, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	metrics, err := newRunMetrics()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		opts:     opts,
		resolver: roster.NewResolver(opts.Platform, opts.StepLogger, opts.RosterConcurrency),
		ws:       workspace.New(opts.WorkspaceDir),
		logger:   opts.Logger,
		metrics:  metrics,
	}, nil
}

// RunID identifies this pipeline's runs in logs and metrics.
func (p *Pipeline) RunID() string {
	return p.opts.RunID
}

// Run builds the roster image for id. Resolution errors are fatal and leave
// nothing on disk. Once workspaces exist they are removed on every path.
func (p *Pipeline) Run(ctx context.Context, id core.Identity) (rep *Report, err error) {
	rep = &Report{RunID: p.opts.RunID, Player: id, StartedAt: time.Now()}
	defer func() {
		rep.Duration = time.Since(rep.StartedAt)
		rep.Err = err
		p.metrics.record(rep)
	}()

	if p.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RunTimeout)
		defer cancel()
	}

	ros, err := p.resolver.Resolve(ctx, id)
	if err != nil {
		return rep, err
	}
	rep.Roster = ros
	for _, s := range ros.Skipped {
		p.logger.Warn("Party member skipped", "membershipId", s.MembershipID, "reason", s.Reason)
	}
	p.logger.Info("Fireteam resolved", "members", len(ros.Members), "selfRank", ros.SelfRank)

	n := len(ros.Members)
	if err := p.ws.Create(n); err != nil {
		_ = p.ws.Remove(n)
		return rep, err
	}
	// Normally the compositor removes them; this covers early exits.
	defer func() { _ = p.ws.Remove(n) }()

	artwork := assets.New(p.opts.Source, p.ws, p.opts.Labeler, p.opts.Assets, p.logger)
	seq := capture.NewSequencer(p.opts.Injector, p.opts.Capture, p.opts.StepLogger, p.opts.Sleep)

	// Network work and on-screen capture touch disjoint resources.
	var g errgroup.Group
	g.Go(func() error {
		rep.Assets = artwork.Run(ctx, ros.Members)
		return nil
	})
	g.Go(func() error {
		rep.Captures = seq.Run(ctx, p.targets(ros))
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("run interrupted before compositing: %w", err)
	}

	res, err := compose.New(p.ws, p.opts.OutputPath, p.logger).Run(n)
	if res != nil {
		rep.Cards = res.Cards
		rep.Dropped = res.Dropped
	}
	if err != nil {
		return rep, err
	}
	rep.OutputPath = res.Path
	return rep, nil
}

func (p *Pipeline) targets(ros *roster.Roster) []capture.Target {
	targets := make([]capture.Target, len(ros.Members))
	for i, m := range ros.Members {
		targets[i] = capture.Target{
			Rank:    m.Rank,
			Special: m.Rank == ros.SelfRank,
			Path:    p.ws.CapturePath(m.Rank),
		}
	}
	return targets
}
