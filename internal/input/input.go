// Package input drives the local desktop: synthetic pointer and keyboard input,
// whole-system input blocking and screen capture.
package input

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/kbinani/screenshot"
)

var (
	// ErrUnsupported is returned by injection calls on platforms without an implementation.
	ErrUnsupported = errors.New("input injection is not supported on this platform")
	// ErrUnknownKey is returned for keys that have no virtual-key mapping.
	ErrUnknownKey = errors.New("unknown key")
)

// specialKeys maps named keys to Windows virtual-key codes.
var specialKeys = map[string]uint8{
	"]":     0xDD, // VK_OEM_6
	"[":     0xDB, // VK_OEM_4
	"esc":   0x1B,
	"enter": 0x0D,
	"tab":   0x09,
	"space": 0x20,
}

// Desktop injects input into the primary display. The zero value is not usable; see New.
type Desktop struct {
	display   int
	keyHold   time.Duration
	repeatGap time.Duration
	sleep     func(time.Duration)
}

// New returns a Desktop for the primary display. keyHold is the time between key
// down and key up; repeatGap separates the taps of a double press and must be
// long enough for the game to close the first panel.
func New(keyHold, repeatGap time.Duration) *Desktop {
	return &Desktop{display: 0, keyHold: keyHold, repeatGap: repeatGap, sleep: time.Sleep}
}

// repeat runs tap once, or twice with repeatGap between when double is set.
func (d *Desktop) repeat(tap func() error, double bool) error {
	if err := tap(); err != nil {
		return err
	}
	if !double {
		return nil
	}
	d.sleep(d.repeatGap)
	return tap()
}

// ScreenSize returns the size of the primary display in pixels.
func (d *Desktop) ScreenSize() (int, int, error) {
	if screenshot.NumActiveDisplays() <= d.display {
		return 0, 0, fmt.Errorf("display %d not active", d.display)
	}
	b := screenshot.GetDisplayBounds(d.display)
	return b.Dx(), b.Dy(), nil
}

// Screenshot captures the primary display.
func (d *Desktop) Screenshot() (image.Image, error) {
	img, err := screenshot.CaptureDisplay(d.display)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return img, nil
}

// printableKey maps a single letter or digit to its virtual-key code, which
// equals the upper-case ASCII code.
func printableKey(key string) (uint8, error) {
	if len(key) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	c := strings.ToUpper(key)[0]
	if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func specialKey(key string) (uint8, error) {
	vk, ok := specialKeys[strings.ToLower(key)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return vk, nil
}
