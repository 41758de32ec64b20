package imaging

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// outlineOffsets stamps the text once per neighbour for a 1px outline.
var outlineOffsets = [8]image.Point{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Labeler draws shrink-to-fit outlined text with a single TrueType font.
type Labeler struct {
	font    *opentype.Font
	Fill    color.Color
	Outline color.Color
}

// NewLabeler parses TrueType/OpenType font data.
func NewLabeler(fontData []byte, fill color.Color) (*Labeler, error) {
	f, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Labeler{font: f, Fill: fill, Outline: color.Black}, nil
}

// LoadLabeler reads the font at path. When the file cannot be read or parsed it
// falls back to the embedded Go Bold face and reports fellBack.
func LoadLabeler(path string, fill color.Color) (l *Labeler, fellBack bool, err error) {
	if data, readErr := os.ReadFile(path); readErr == nil {
		if l, err = NewLabeler(data, fill); err == nil {
			return l, false, nil
		}
	}
	l, err = NewLabeler(gobold.TTF, fill)
	return l, true, err
}

func (l *Labeler) face(size int) (font.Face, error) {
	return opentype.NewFace(l.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Measure returns the ink width and height of text at size.
func (l *Labeler) Measure(text string, size int) (width, height int, err error) {
	face, err := l.face(size)
	if err != nil {
		return 0, 0, err
	}
	defer face.Close()

	b, _ := font.BoundString(face, text)
	return (b.Max.X - b.Min.X).Ceil(), (b.Max.Y - b.Min.Y).Ceil(), nil
}

// Fit returns the largest size in [minSize, startSize] whose rendered width is
// at most maxWidth, counting down one point at a time. When nothing fits it
// stops at minSize and fits is false.
func (l *Labeler) Fit(text string, maxWidth, startSize, minSize int) (size, width int, fits bool, err error) {
	if minSize < 1 {
		minSize = 1
	}
	if startSize < minSize {
		startSize = minSize
	}
	for size = startSize; ; size-- {
		width, _, err = l.Measure(text, size)
		if err != nil {
			return 0, 0, false, err
		}
		if width <= maxWidth {
			return size, width, true, nil
		}
		if size <= minSize {
			return size, width, false, nil
		}
	}
}

// LabelOptions places a label on an image.
type LabelOptions struct {
	Indent    int
	Lift      int
	StartSize int
	MinSize   int
}

// LabelResult reports where and how large a label was drawn.
type LabelResult struct {
	Size   int
	Width  int
	Fits   bool
	Origin image.Point
}

// Draw renders text onto dst, left-inset by opts.Indent and vertically centred
// then raised by opts.Lift, using the largest size that fits the width left of
// the indent. The text gets an outline before the fill.
func (l *Labeler) Draw(dst draw.Image, text string, opts LabelOptions) (LabelResult, error) {
	bounds := dst.Bounds()
	size, width, fits, err := l.Fit(text, bounds.Dx()-opts.Indent, opts.StartSize, opts.MinSize)
	if err != nil {
		return LabelResult{}, err
	}

	face, err := l.face(size)
	if err != nil {
		return LabelResult{}, err
	}
	defer face.Close()

	ink, _ := font.BoundString(face, text)
	height := (ink.Max.Y - ink.Min.Y).Ceil()
	top := bounds.Min.Y + (bounds.Dy()-height)/2 - opts.Lift
	origin := image.Pt(bounds.Min.X+opts.Indent, top)
	// The drawer positions the baseline; ink.Min is relative to it.
	dot := fixed.P(origin.X, origin.Y).Sub(ink.Min)

	d := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(l.Outline)}
	for _, off := range outlineOffsets {
		d.Dot = dot.Add(fixed.P(off.X, off.Y))
		d.DrawString(text)
	}
	d.Src = image.NewUniform(l.Fill)
	d.Dot = dot
	d.DrawString(text)

	return LabelResult{Size: size, Width: width, Fits: fits, Origin: origin}, nil
}
