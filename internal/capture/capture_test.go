package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fireteam/roster/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInjector records every action as a short string.
type fakeInjector struct {
	mu       sync.Mutex
	w, h     int
	calls    []string
	blockErr error
	shotErr  error
	failOn   string
	blocked  bool
}

func (f *fakeInjector) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.failOn != "" && call == f.failOn {
		return errors.New("injected failure")
	}
	return nil
}

func (f *fakeInjector) ScreenSize() (int, int, error) { return f.w, f.h, nil }
func (f *fakeInjector) MoveTo(x, y int) error         { return f.record(fmt.Sprintf("move %d,%d", x, y)) }
func (f *fakeInjector) RightClick() error             { return f.record("rclick") }
func (f *fakeInjector) PressKey(key string) error     { return f.record("key " + key) }

func (f *fakeInjector) PressSpecial(key string, double bool) error {
	if double {
		return f.record("special " + key + " x2")
	}
	return f.record("special " + key)
}

func (f *fakeInjector) BlockInput(block bool) error {
	if f.blockErr != nil {
		return f.blockErr
	}
	f.mu.Lock()
	f.blocked = block
	f.mu.Unlock()
	return f.record(fmt.Sprintf("block %v", block))
}

func (f *fakeInjector) Screenshot() (image.Image, error) {
	if err := f.record("screenshot"); err != nil {
		return nil, err
	}
	if f.shotErr != nil {
		return nil, f.shotErr
	}
	return imaging.NewCanvas(f.w, f.h, color.RGBA{R: 40, G: 80, B: 120, A: 255}), nil
}

func (f *fakeInjector) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testConfig() Config {
	return Config{
		XRatio:       0.25,
		YBase:        0.2,
		YStep:        0.05,
		DetailXRatio: 0.75,
		DetailYRatio: 0.5,
		Park:         image.Pt(10, 10),
		CropLeft:     0.5,
		CropRight:    0.75,
		Width:        50,
		ContextKey:   "s",
		InventoryKey: "i",
		DismissKey:   "]",
		SettleDelay:  500 * time.Millisecond,
		CaptureDelay: 1500 * time.Millisecond,
		ReleaseDelay: 250 * time.Millisecond,
	}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func newSequencer(inj *fakeInjector, cfg Config) (*Sequencer, *sleepRecorder) {
	rec := &sleepRecorder{}
	return NewSequencer(inj, cfg, nopLogger{}, rec.Sleep), rec
}

func TestGeometry(t *testing.T) {
	cfg := Config{XRatio: 0.25, YBase: 0.193, YStep: 0.054, DetailXRatio: 0.725, DetailYRatio: 0.369,
		CropLeft: 2270.0 / 3840.0, CropRight: 3250.0 / 3840.0}

	p := cfg.PartyPoint(1, 3840, 2160)
	assert.Equal(t, 960, p.X)
	assert.InDelta(t, 533, p.Y, 1)

	p2 := cfg.PartyPoint(2, 3840, 2160)
	assert.InDelta(t, 2160*0.054, p2.Y-p.Y, 1, "one step per rank")

	d := cfg.DetailPoint(3840, 2160)
	assert.InDelta(t, 2784, d.X, 1)
	assert.InDelta(t, 797, d.Y, 1)

	r := cfg.CropRect(3840, 2160)
	assert.InDelta(t, 2270, r.Min.X, 1)
	assert.InDelta(t, 3250, r.Max.X, 1)
	assert.Equal(t, 0, r.Min.Y)
	assert.Equal(t, 2160, r.Max.Y)
}

func TestCapture_PartyMember(t *testing.T) {
	inj := &fakeInjector{w: 400, h: 200}
	seq, rec := newSequencer(inj, testConfig())
	path := filepath.Join(t.TempDir(), "capture.png")

	require.NoError(t, seq.Capture(context.Background(), Target{Rank: 2, Path: path}))

	assert.Equal(t, []string{
		"block true",
		"move 100,60",
		"rclick",
		"key s",
		"move 300,100",
		"rclick",
		"move 10,10",
		"screenshot",
		"special ] x2",
		"block false",
	}, inj.Calls())
	assert.False(t, inj.blocked)

	img, err := imaging.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy(), "crop keeps full height, 100x200 band resized to width 50")

	ms := time.Millisecond
	assert.Equal(t, []time.Duration{500 * ms, 500 * ms, 500 * ms, 500 * ms, 500 * ms, 1500 * ms, 0, 500 * ms, 250 * ms}, rec.delays)
}

func TestCapture_LocalPlayer(t *testing.T) {
	inj := &fakeInjector{w: 400, h: 200}
	seq, _ := newSequencer(inj, testConfig())

	require.NoError(t, seq.Capture(context.Background(), Target{Rank: 1, Special: true, Path: filepath.Join(t.TempDir(), "c.png")}))

	assert.Equal(t, []string{
		"block true",
		"key i",
		"key s",
		"move 300,100",
		"rclick",
		"move 10,10",
		"screenshot",
		"special ]",
		"block false",
	}, inj.Calls())
}

func TestCapture_ScreenshotFailureBacksOut(t *testing.T) {
	inj := &fakeInjector{w: 400, h: 200, shotErr: errors.New("no display")}
	seq, _ := newSequencer(inj, testConfig())

	err := seq.Capture(context.Background(), Target{Rank: 2, Path: filepath.Join(t.TempDir(), "c.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "screenshot")

	calls := inj.Calls()
	assert.Equal(t, []string{"screenshot", "special ] x2", "block false"}, calls[len(calls)-3:])
	assert.False(t, inj.blocked, "input is unblocked after a failure")
}

func TestCapture_FailureBeforePanelsSkipsDismiss(t *testing.T) {
	inj := &fakeInjector{w: 400, h: 200, failOn: "rclick"}
	seq, _ := newSequencer(inj, testConfig())

	err := seq.Capture(context.Background(), Target{Rank: 3, Path: filepath.Join(t.TempDir(), "c.png")})
	require.Error(t, err)
	assert.Equal(t, []string{"block true", "move 100,70", "rclick", "block false"}, inj.Calls())
}

func TestCapture_UnwritablePathFails(t *testing.T) {
	inj := &fakeInjector{w: 400, h: 200}
	seq, _ := newSequencer(inj, testConfig())

	err := seq.Capture(context.Background(), Target{Rank: 1, Special: true, Path: filepath.Join(t.TempDir(), "missing", "c.png")})
	require.Error(t, err)
}

func TestRun_AscendingOrderAndOutcomes(t *testing.T) {
	inj := &fakeInjector{w: 400, h: 200}
	seq, _ := newSequencer(inj, testConfig())
	dir := t.TempDir()

	targets := []Target{
		{Rank: 3, Path: filepath.Join(dir, "3.png")},
		{Rank: 1, Special: true, Path: filepath.Join(dir, "1.png")},
		{Rank: 2, Path: filepath.Join(dir, "nope", "2.png")},
	}
	outcomes := seq.Run(context.Background(), targets)

	require.Len(t, outcomes, 3)
	assert.Equal(t, 1, outcomes[0].Rank)
	assert.Equal(t, Captured, outcomes[0].State)
	assert.Equal(t, 2, outcomes[1].Rank)
	assert.Equal(t, Failed, outcomes[1].State)
	assert.Error(t, outcomes[1].Err)
	assert.Equal(t, 3, outcomes[2].Rank)
	assert.Equal(t, Captured, outcomes[2].State, "a failed rank does not stop later ranks")

	var order []string
	for _, c := range inj.Calls() {
		if c == "key i" || c == "move 100,60" || c == "move 100,70" {
			order = append(order, c)
		}
	}
	assert.Equal(t, []string{"key i", "move 100,60", "move 100,70"}, order)
	assert.Equal(t, 3, targets[0].Rank, "input slice is not reordered")
}

func TestRun_CancelledContextFailsRemaining(t *testing.T) {
	inj := &fakeInjector{w: 400, h: 200}
	seq, _ := newSequencer(inj, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := seq.Run(ctx, []Target{{Rank: 1}, {Rank: 2}})
	for _, o := range outcomes {
		assert.Equal(t, Failed, o.State)
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Empty(t, inj.Calls())
}

func TestInputLock_NotReentrant(t *testing.T) {
	inj := &fakeInjector{}
	lock := NewInputLock(inj, false, nopLogger{})

	release, err := lock.Acquire()
	require.NoError(t, err)

	_, err = lock.Acquire()
	assert.ErrorIs(t, err, ErrInputBusy)

	release()
	release()

	release2, err := lock.Acquire()
	require.NoError(t, err)
	release2()
	assert.Equal(t, []string{"block true", "block false", "block true", "block false"}, inj.Calls())
}

func TestInputLock_BlockFailure(t *testing.T) {
	inj := &fakeInjector{blockErr: errors.New("access denied")}

	lenient := NewInputLock(inj, false, nopLogger{})
	release, err := lenient.Acquire()
	require.NoError(t, err, "tolerated unless required")
	release()

	strict := NewInputLock(inj, true, nopLogger{})
	_, err = strict.Acquire()
	require.Error(t, err)

	// The failed acquire must not leave the lock held.
	inj.blockErr = nil
	release, err = strict.Acquire()
	require.NoError(t, err)
	release()
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "captured", Captured.String())
	assert.Equal(t, "failed", Failed.String())
}

func TestSleep_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
