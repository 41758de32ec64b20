//go:build !windows

package input

// MoveTo is not supported off Windows.
func (d *Desktop) MoveTo(x, y int) error { return ErrUnsupported }

// RightClick is not supported off Windows.
func (d *Desktop) RightClick() error { return ErrUnsupported }

// PressKey validates key and reports ErrUnsupported.
func (d *Desktop) PressKey(key string) error {
	if _, err := printableKey(key); err != nil {
		return err
	}
	return ErrUnsupported
}

// PressSpecial validates key and reports ErrUnsupported.
func (d *Desktop) PressSpecial(key string, double bool) error {
	if _, err := specialKey(key); err != nil {
		return err
	}
	return ErrUnsupported
}

// BlockInput is not supported off Windows.
func (d *Desktop) BlockInput(block bool) error { return ErrUnsupported }
