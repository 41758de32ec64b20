// Package compose layers each rank's capture, emblem and ghost into a card
// and joins the cards into the final roster image.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fireteam/roster/internal/imaging"
	"github.com/fireteam/roster/internal/workspace"
)

var (
	// ErrNoCapture is returned for a rank whose capture is missing. Such a rank has no card.
	ErrNoCapture = errors.New("no capture for rank")
	// ErrNoCards is returned when no rank produced a card.
	ErrNoCards = errors.New("no cards to combine")
)

// Background is the opaque black that fills the area below cards shorter than
// the tallest one.
func Background() color.RGBA {
	return color.RGBA{A: 255}
}

// Offsets are the paste positions of a card's layers.
type Offsets struct {
	Emblem image.Point
	Ghost  image.Point
}

// Layout places the emblem flush with the bottom of the capture and the ghost
// centred directly above it. A missing layer is passed as the zero size.
func Layout(capture, emblem, ghost image.Point) Offsets {
	return Offsets{
		Emblem: image.Pt(0, capture.Y-emblem.Y),
		Ghost:  image.Pt((capture.X-ghost.X)/2, capture.Y-ghost.Y-emblem.Y),
	}
}

// BuildCard layers emblem and ghost over capture. Either overlay may be nil.
func BuildCard(capture, emblem, ghost image.Image) (*image.RGBA, error) {
	if capture == nil {
		return nil, ErrNoCapture
	}
	size := imaging.Size(capture)
	off := Layout(size, imaging.Size(emblem), imaging.Size(ghost))

	card := imaging.NewCanvas(size.X, size.Y, Background())
	imaging.Paste(card, capture, image.Point{})
	if ghost != nil {
		imaging.Paste(card, ghost, off.Ghost)
	}
	if emblem != nil {
		imaging.Paste(card, emblem, off.Emblem)
	}
	return card, nil
}

// Combine concatenates cards left to right, top-aligned.
func Combine(cards []image.Image) (*image.RGBA, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	var width, height int
	for _, c := range cards {
		s := imaging.Size(c)
		width += s.X
		height = max(height, s.Y)
	}

	out := imaging.NewCanvas(width, height, Background())
	x := 0
	for _, c := range cards {
		imaging.Paste(out, c, image.Pt(x, 0))
		x += imaging.Size(c).X
	}
	return out, nil
}

// AssembleCard builds the card of rank from its workspace files, writes it to
// card.png and deletes the source layers whether or not a card was made.
func AssembleCard(ws *workspace.Workspace, rank int) (image.Image, error) {
	sources := []string{ws.CapturePath(rank), ws.EmblemPath(rank), ws.GhostPath(rank)}
	defer func() {
		for _, p := range sources {
			_ = os.Remove(p)
		}
	}()

	layers := make([]image.Image, len(sources))
	for i, p := range sources {
		if !workspace.Exists(p) {
			continue
		}
		img, err := imaging.Load(p)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("rank %d: %w", rank, err)
			}
			continue
		}
		layers[i] = img
	}
	if layers[0] == nil {
		return nil, fmt.Errorf("rank %d: %w", rank, ErrNoCapture)
	}

	card, err := BuildCard(layers[0], layers[1], layers[2])
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(ws.CardPath(rank), card); err != nil {
		return nil, fmt.Errorf("rank %d: %w", rank, err)
	}
	return card, nil
}

// Result describes one compositing run.
type Result struct {
	Path    string
	Cards   []int
	Dropped map[int]error
}

// Compositor writes the combined image for ranks 1..n of a workspace.
type Compositor struct {
	ws     *workspace.Workspace
	output string
	logger *slog.Logger
}

// New returns a compositor writing to output.
func New(ws *workspace.Workspace, output string, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{ws: ws, output: output, logger: logger}
}

// Run assembles the cards of ranks 1..n in ascending order, combines them and
// writes the output file. Every workspace directory is removed before Run
// returns, on success or failure.
func (c *Compositor) Run(n int) (res *Result, err error) {
	defer func() {
		if rmErr := c.ws.Remove(n); rmErr != nil {
			c.logger.Error("Failed to remove workspaces", "error", rmErr)
			err = errors.Join(err, rmErr)
		}
	}()

	res = &Result{Path: c.output, Dropped: map[int]error{}}
	var cards []image.Image
	for rank := 1; rank <= n; rank++ {
		card, err := AssembleCard(c.ws, rank)
		if err != nil {
			c.logger.Warn("Rank has no card", "rank", rank, "error", err)
			res.Dropped[rank] = err
			continue
		}
		cards = append(cards, card)
		res.Cards = append(res.Cards, rank)
	}

	combined, err := Combine(cards)
	if err != nil {
		return res, err
	}
	if dir := filepath.Dir(c.output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return res, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := imaging.Save(c.output, combined); err != nil {
		return res, fmt.Errorf("writing combined image: %w", err)
	}
	c.logger.Info("Combined image written", "path", c.output, "cards", len(cards))
	return res, nil
}
