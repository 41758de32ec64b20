//go:build windows

package input

import (
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	procSetCursor  = user32.NewProc("SetCursorPos")
	procMouseEvent = user32.NewProc("mouse_event")
	procKeybdEvent = user32.NewProc("keybd_event")
	procBlockInput = user32.NewProc("BlockInput")
)

const (
	mouseEventRightDown = 0x0008
	mouseEventRightUp   = 0x0010
	keyEventKeyUp       = 0x0002
)

// MoveTo places the pointer at absolute screen coordinates.
func (d *Desktop) MoveTo(x, y int) error {
	if r, _, err := procSetCursor.Call(uintptr(x), uintptr(y)); r == 0 {
		return fmt.Errorf("SetCursorPos(%d,%d): %w", x, y, err)
	}
	return nil
}

// RightClick presses and releases the right mouse button at the pointer.
func (d *Desktop) RightClick() error {
	if err := procMouseEvent.Find(); err != nil {
		return err
	}
	procMouseEvent.Call(mouseEventRightDown, 0, 0, 0, 0)
	procMouseEvent.Call(mouseEventRightUp, 0, 0, 0, 0)
	return nil
}

func (d *Desktop) tap(vk uint8) error {
	if err := procKeybdEvent.Find(); err != nil {
		return err
	}
	procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
	d.sleep(d.keyHold)
	procKeybdEvent.Call(uintptr(vk), 0, keyEventKeyUp, 0)
	return nil
}

// PressKey taps a letter or digit key.
func (d *Desktop) PressKey(key string) error {
	vk, err := printableKey(key)
	if err != nil {
		return err
	}
	return d.tap(vk)
}

// PressSpecial taps a named key, twice when double is set.
func (d *Desktop) PressSpecial(key string, double bool) error {
	vk, err := specialKey(key)
	if err != nil {
		return err
	}
	return d.repeat(func() error { return d.tap(vk) }, double)
}

// BlockInput toggles whole-system blocking of keyboard and mouse input.
// Blocking requires an elevated process.
func (d *Desktop) BlockInput(block bool) error {
	var arg uintptr
	if block {
		arg = 1
	}
	if r, _, err := procBlockInput.Call(arg); r == 0 {
		return fmt.Errorf("BlockInput(%v): %w", block, err)
	}
	return nil
}
