package imaging

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
)

func newTestLabeler(t *testing.T) *Labeler {
	t.Helper()
	l, err := NewLabeler(gobold.TTF, color.White)
	require.NoError(t, err)
	return l
}

func TestLoadLabeler_FallsBack(t *testing.T) {
	l, fellBack, err := LoadLabeler(filepath.Join(t.TempDir(), "missing.ttf"), color.White)
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.NotNil(t, l)
}

func TestNewLabeler_InvalidFont(t *testing.T) {
	_, err := NewLabeler([]byte("not a font"), color.White)
	assert.Error(t, err)
}

func TestFit_NeverExceedsAvailableWidth(t *testing.T) {
	l := newTestLabeler(t)
	const canonicalWidth, indent = 474, 120

	for _, text := range []string{"Bo", "Guardian", "AVeryLongBungieNameThatNeedsShrinking", "Ωmega Ünïcode"} {
		size, width, fits, err := l.Fit(text, canonicalWidth-indent, 40, 10)
		require.NoError(t, err)
		if !fits {
			assert.Equal(t, 10, size, text)
			continue
		}
		assert.LessOrEqual(t, width, canonicalWidth-indent, text)
		assert.LessOrEqual(t, size, 40)
		assert.GreaterOrEqual(t, size, 10)
		if size < 40 {
			// one point larger must not fit
			w, _, err := l.Measure(text, size+1)
			require.NoError(t, err)
			assert.Greater(t, w, canonicalWidth-indent, text)
		}
	}
}

func TestFit_ShortTextKeepsStartSize(t *testing.T) {
	size, _, fits, err := newTestLabeler(t).Fit("Hi", 354, 40, 10)
	require.NoError(t, err)
	assert.True(t, fits)
	assert.Equal(t, 40, size)
}

func TestFit_StopsAtMinimum(t *testing.T) {
	size, width, fits, err := newTestLabeler(t).Fit("WWWWWWWWWWWWWWWWWWWWWWWWWWWWWW", 20, 40, 10)
	require.NoError(t, err)
	assert.False(t, fits)
	assert.Equal(t, 10, size)
	assert.Greater(t, width, 20)
}

func TestFit_ClampsBadBounds(t *testing.T) {
	size, _, _, err := newTestLabeler(t).Fit("x", 1000, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestDraw_PlacesOutlinedLabel(t *testing.T) {
	l := newTestLabeler(t)
	l.Fill = color.RGBA{R: 255, A: 255}
	dst := NewCanvas(474, 96, color.RGBA{B: 255, A: 255})

	res, err := l.Draw(dst, "Guardian", LabelOptions{Indent: 120, Lift: 10, StartSize: 40, MinSize: 10})
	require.NoError(t, err)

	assert.True(t, res.Fits)
	assert.Equal(t, 120, res.Origin.X)
	assert.Less(t, res.Origin.Y, 48)

	var fill, outline int
	for y := 0; y < 96; y++ {
		for x := 0; x < 474; x++ {
			c := dst.RGBAAt(x, y)
			if x < 117 {
				assert.Equal(t, color.RGBA{B: 255, A: 255}, c, "pixel left of indent changed at %d,%d", x, y)
				continue
			}
			switch {
			case c.R > 200 && c.B < 50:
				fill++
			case c.R < 50 && c.B < 50:
				outline++
			}
		}
	}
	assert.Greater(t, fill, 0)
	assert.Greater(t, outline, 0)
}

func TestDraw_Deterministic(t *testing.T) {
	l := newTestLabeler(t)
	a := NewCanvas(474, 96, color.Black)
	b := NewCanvas(474, 96, color.Black)
	opts := LabelOptions{Indent: 120, Lift: 10, StartSize: 40, MinSize: 10}

	_, err := l.Draw(a, "Same", opts)
	require.NoError(t, err)
	_, err = l.Draw(b, "Same", opts)
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
	assert.Equal(t, image.Rect(0, 0, 474, 96), a.Bounds())
}
