// Package assets downloads and prepares the emblem and ghost artwork of every
// fireteam member.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fireteam/roster/internal/api"
	"github.com/fireteam/roster/internal/cache"
	"github.com/fireteam/roster/internal/imaging"
	"github.com/fireteam/roster/internal/workspace"
	"github.com/fireteam/roster/pkg/core"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoEmblem is recorded for members whose character has no emblem path.
	ErrNoEmblem = errors.New("character has no emblem")
	// ErrNoIcon is recorded when a ghost item definition carries no icon.
	ErrNoIcon = errors.New("item definition has no icon")
)

// Source is the subset of the platform client the pipeline needs.
type Source interface {
	Download(ctx context.Context, resource, dest string) error
	GetItemDefinition(ctx context.Context, itemHash uint32) (*api.ItemDefinition, error)
}

// Config holds the canonical artwork sizes.
type Config struct {
	Concurrency  int
	EmblemWidth  int
	EmblemHeight int
	GhostSize    int
	Label        imaging.LabelOptions
}

// Outcome is the artwork state of one rank.
type Outcome struct {
	Rank      int
	EmblemErr error
	HasGhost  bool
	GhostErr  error
}

// Degraded reports whether any of the rank's artwork is missing.
func (o Outcome) Degraded() bool {
	return o.EmblemErr != nil || o.GhostErr != nil
}

// Result holds one Outcome per rank, in rank order.
type Result struct {
	Outcomes []Outcome
}

// Failures counts the missing emblem and ghost artworks.
func (r *Result) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.EmblemErr != nil {
			n++
		}
		if o.GhostErr != nil {
			n++
		}
	}
	return n
}

// Pipeline prepares artwork into a workspace.
type Pipeline struct {
	source  Source
	defs    *cache.DefinitionCache
	ws      *workspace.Workspace
	labeler *imaging.Labeler
	cfg     Config
	logger  *slog.Logger
}

// New creates an asset pipeline.
func New(source Source, ws *workspace.Workspace, labeler *imaging.Labeler, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{source: source, defs: cache.NewDefinitionCache(), ws: ws, labeler: labeler, cfg: cfg, logger: logger}
}

// Run prepares the artwork of members, which must be rank-ordered. Failures
// are recorded per rank and never stop the other members.
func (p *Pipeline) Run(ctx context.Context, members []core.MemberRecord) *Result {
	res := &Result{Outcomes: make([]Outcome, len(members))}
	for i, m := range members {
		res.Outcomes[i] = Outcome{Rank: m.Rank, HasGhost: m.Ghost != nil}
	}

	// Phase A: every emblem download runs and settles before labelling starts.
	p.each(members, func(i int, m core.MemberRecord) {
		res.Outcomes[i].EmblemErr = p.downloadEmblem(ctx, m)
	})

	// Phase B: resize and label, one at a time.
	for i, m := range members {
		if res.Outcomes[i].EmblemErr != nil {
			continue
		}
		if err := p.labelEmblem(m); err != nil {
			res.Outcomes[i].EmblemErr = err
			_ = os.Remove(p.ws.EmblemPath(m.Rank))
		}
	}

	// Phase C: ghost icons.
	p.each(members, func(i int, m core.MemberRecord) {
		if m.Ghost == nil {
			return
		}
		if err := p.fetchGhost(ctx, m); err != nil {
			res.Outcomes[i].GhostErr = err
			_ = os.Remove(p.ws.GhostPath(m.Rank))
		}
	})

	for _, o := range res.Outcomes {
		if o.EmblemErr != nil {
			p.logger.Warn("Emblem unavailable", "rank", o.Rank, "error", o.EmblemErr)
		}
		if o.GhostErr != nil {
			p.logger.Warn("Ghost icon unavailable", "rank", o.Rank, "error", o.GhostErr)
		}
	}
	return res
}

// each runs fn for every member concurrently and waits for all of them.
// Each fn writes only its own index of the result.
func (p *Pipeline) each(members []core.MemberRecord, fn func(int, core.MemberRecord)) {
	var g errgroup.Group
	if p.cfg.Concurrency > 0 {
		g.SetLimit(p.cfg.Concurrency)
	}
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			fn(i, m)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pipeline) downloadEmblem(ctx context.Context, m core.MemberRecord) error {
	if m.Character.EmblemBackgroundPath == "" {
		return ErrNoEmblem
	}
	if err := p.source.Download(ctx, m.Character.EmblemBackgroundPath, p.ws.EmblemPath(m.Rank)); err != nil {
		return fmt.Errorf("emblem download: %w", err)
	}
	p.logger.Debug("Emblem downloaded", "rank", m.Rank, "name", m.DisplayName)
	return nil
}

func (p *Pipeline) labelEmblem(m core.MemberRecord) error {
	path := p.ws.EmblemPath(m.Rank)
	src, err := imaging.Load(path)
	if err != nil {
		return fmt.Errorf("emblem load: %w", err)
	}

	emblem := imaging.Resize(src, p.cfg.EmblemWidth, p.cfg.EmblemHeight)
	label, err := p.labeler.Draw(emblem, m.Label(), p.cfg.Label)
	if err != nil {
		return fmt.Errorf("emblem label: %w", err)
	}
	if !label.Fits {
		p.logger.Warn("Label wider than emblem at minimum size", "rank", m.Rank, "name", m.DisplayName, "width", label.Width)
	}

	if err := imaging.Save(path, emblem); err != nil {
		return fmt.Errorf("emblem save: %w", err)
	}
	return nil
}

func (p *Pipeline) fetchGhost(ctx context.Context, m core.MemberRecord) error {
	def, err := p.defs.Fetch(ctx, m.Ghost.ItemHash, p.source.GetItemDefinition)
	if err != nil {
		return fmt.Errorf("ghost definition: %w", err)
	}
	icon := def.Icon()
	if icon == "" {
		return ErrNoIcon
	}

	path := p.ws.GhostPath(m.Rank)
	if err := p.source.Download(ctx, icon, path); err != nil {
		return fmt.Errorf("ghost download: %w", err)
	}
	src, err := imaging.Load(path)
	if err != nil {
		return fmt.Errorf("ghost load: %w", err)
	}
	if err := imaging.Save(path, imaging.Resize(src, p.cfg.GhostSize, p.cfg.GhostSize)); err != nil {
		return fmt.Errorf("ghost save: %w", err)
	}
	return nil
}
