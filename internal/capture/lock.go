package capture

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInputBusy is returned when the input lock is already held.
var ErrInputBusy = errors.New("input lock already held")

// Blocker toggles whole-system input blocking.
type Blocker interface {
	BlockInput(block bool) error
}

// InputLock is the single-writer guard over the shared pointer and keyboard.
// It is not reentrant: a second Acquire while held fails instead of waiting.
type InputLock struct {
	mu      sync.Mutex
	blocker Blocker
	require bool
	logger  Logger
}

// NewInputLock creates a lock that blocks operator input while held. When
// requireBlock is false a failure to block is logged and tolerated.
func NewInputLock(blocker Blocker, requireBlock bool, logger Logger) *InputLock {
	return &InputLock{blocker: blocker, require: requireBlock, logger: logger}
}

// Acquire takes the lock and blocks input. The returned release func unblocks
// input and frees the lock; it is safe to call more than once.
func (l *InputLock) Acquire() (release func(), err error) {
	if !l.mu.TryLock() {
		return nil, ErrInputBusy
	}

	blocked := true
	if err := l.blocker.BlockInput(true); err != nil {
		if l.require {
			l.mu.Unlock()
			return nil, fmt.Errorf("blocking input: %w", err)
		}
		l.logger.Error("Input blocking unavailable, continuing unblocked", "error", err)
		blocked = false
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if blocked {
				if err := l.blocker.BlockInput(false); err != nil {
					l.logger.Error("Failed to unblock input", "error", err)
				}
			}
			l.mu.Unlock()
		})
	}, nil
}
