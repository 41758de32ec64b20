package capture

import (
	"image"
	"time"
)

// Config holds the screen geometry and settle timing of the capture sequence.
// Ratios are fractions of screen width (x) or height (y).
type Config struct {
	XRatio       float64
	YBase        float64
	YStep        float64
	DetailXRatio float64
	DetailYRatio float64
	Park         image.Point
	CropLeft     float64
	CropRight    float64
	Width        int

	ContextKey   string
	InventoryKey string
	DismissKey   string

	SettleDelay  time.Duration
	CaptureDelay time.Duration
	ReleaseDelay time.Duration

	RequireInputBlock bool
}

// PartyPoint is the party-list entry of rank: y = H·(YBase + rank·YStep).
func (c Config) PartyPoint(rank, w, h int) image.Point {
	return image.Pt(int(float64(w)*c.XRatio), int(float64(h)*(c.YBase+float64(rank)*c.YStep)))
}

// DetailPoint is where the detail panel is opened.
func (c Config) DetailPoint(w, h int) image.Point {
	return image.Pt(int(float64(w)*c.DetailXRatio), int(float64(h)*c.DetailYRatio))
}

// CropRect is the horizontal band kept from a full-screen capture.
func (c Config) CropRect(w, h int) image.Rectangle {
	return image.Rect(int(c.CropLeft*float64(w)), 0, int(c.CropRight*float64(w)), h)
}
