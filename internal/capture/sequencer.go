// Package capture screenshots each fireteam member's equipment overlay by
// driving the game UI with synthetic input, one rank at a time.
package capture

import (
	"context"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/fireteam/roster/internal/imaging"
)

// Injector is the desktop input and screen capability.
type Injector interface {
	Blocker
	ScreenSize() (int, int, error)
	MoveTo(x, y int) error
	RightClick() error
	PressKey(key string) error
	PressSpecial(key string, double bool) error
	Screenshot() (image.Image, error)
}

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// State is the terminal state of one rank's capture.
type State int

const (
	Failed State = iota
	Captured
)

func (s State) String() string {
	if s == Captured {
		return "captured"
	}
	return "failed"
}

// Target is one rank to capture. Special marks the local player, whose panel
// is reached through the inventory keys instead of the party list.
type Target struct {
	Rank    int
	Special bool
	Path    string
}

// Outcome is the result of one Target.
type Outcome struct {
	Rank  int
	State State
	Err   error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sequencer runs capture sequences strictly one after another.
type Sequencer struct {
	injector Injector
	lock     *InputLock
	cfg      Config
	logger   Logger
	sleep    SleepFunc
}

// NewSequencer creates a sequencer. A nil sleep uses Sleep.
func NewSequencer(injector Injector, cfg Config, logger Logger, sleep SleepFunc) *Sequencer {
	if logger == nil {
		logger = nopLogger{}
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Sequencer{
		injector: injector,
		lock:     NewInputLock(injector, cfg.RequireInputBlock, logger),
		cfg:      cfg,
		logger:   logger,
		sleep:    sleep,
	}
}

// Run captures every target in ascending rank order. Outcomes are returned
// in the same order. Once ctx is done the remaining targets fail with its error.
func (s *Sequencer) Run(ctx context.Context, targets []Target) []Outcome {
	ordered := append([]Target(nil), targets...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	outcomes := make([]Outcome, 0, len(ordered))
	for _, t := range ordered {
		out := Outcome{Rank: t.Rank, State: Captured}
		if err := ctx.Err(); err != nil {
			out.State, out.Err = Failed, err
		} else if err := s.Capture(ctx, t); err != nil {
			out.State, out.Err = Failed, err
		}

		if out.State == Captured {
			s.logger.Info("Captured fireteam position", "rank", t.Rank, "special", t.Special)
		} else {
			s.logger.Error("Capture failed", "rank", t.Rank, "special", t.Special, "error", out.Err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

type step struct {
	name   string
	settle time.Duration
	opens  int
	do     func() error
}

// Capture runs the sequence for one target while holding the input lock.
func (s *Sequencer) Capture(ctx context.Context, t Target) (err error) {
	release, err := s.lock.Acquire()
	if err != nil {
		return err
	}
	defer func() {
		release()
		_ = s.sleep(ctx, s.cfg.ReleaseDelay)
	}()

	w, h, err := s.injector.ScreenSize()
	if err != nil {
		return fmt.Errorf("screen size: %w", err)
	}

	opened := 0
	for _, st := range s.plan(t, w, h) {
		s.logger.Debug("Capture step", "rank", t.Rank, "step", st.name)
		if err := st.do(); err != nil {
			s.backOut(opened)
			return fmt.Errorf("%s: %w", st.name, err)
		}
		opened += st.opens
		if err := s.sleep(ctx, st.settle); err != nil {
			s.backOut(opened)
			return err
		}
	}
	return nil
}

// backOut closes panels left open by a failed sequence.
func (s *Sequencer) backOut(opened int) {
	if opened <= 0 {
		return
	}
	if err := s.injector.PressSpecial(s.cfg.DismissKey, opened > 1); err != nil {
		s.logger.Error("Failed to dismiss panels", "error", err)
	}
}

func (s *Sequencer) plan(t Target, w, h int) []step {
	settle := s.cfg.SettleDelay
	inj := s.injector
	moveTo := func(p image.Point) func() error {
		return func() error { return inj.MoveTo(p.X, p.Y) }
	}

	var steps []step
	if t.Special {
		steps = append(steps,
			step{name: "open inventory", settle: settle, do: func() error { return inj.PressKey(s.cfg.InventoryKey) }},
			step{name: "open character", settle: settle, do: func() error { return inj.PressKey(s.cfg.ContextKey) }},
		)
	} else {
		steps = append(steps,
			step{name: "move to party entry", settle: settle, do: moveTo(s.cfg.PartyPoint(t.Rank, w, h))},
			step{name: "open context menu", settle: settle, do: inj.RightClick},
			step{name: "open inspect", settle: settle, opens: 1, do: func() error { return inj.PressKey(s.cfg.ContextKey) }},
		)
	}

	dismiss := -2
	if t.Special {
		dismiss = -1
	}
	steps = append(steps,
		step{name: "move to detail", settle: settle, do: moveTo(s.cfg.DetailPoint(w, h))},
		step{name: "open detail", settle: settle, opens: 1, do: inj.RightClick},
		step{name: "park pointer", settle: s.cfg.CaptureDelay, do: moveTo(s.cfg.Park)},
		step{name: "screenshot", do: func() error { return s.screenshot(t.Path, w, h) }},
		step{name: "dismiss", settle: settle, opens: dismiss, do: func() error {
			return inj.PressSpecial(s.cfg.DismissKey, !t.Special)
		}},
	)
	return steps
}

func (s *Sequencer) screenshot(path string, w, h int) error {
	shot, err := s.injector.Screenshot()
	if err != nil {
		return err
	}
	band := imaging.Crop(shot, s.cfg.CropRect(w, h).Add(shot.Bounds().Min))
	return imaging.Save(path, imaging.ResizeToWidth(band, s.cfg.Width))
}
