package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintableKey(t *testing.T) {
	tests := []struct {
		key  string
		want uint8
	}{
		{"s", 'S'},
		{"I", 'I'},
		{"7", '7'},
	}
	for _, tt := range tests {
		got, err := printableKey(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "ab", "]", "é"} {
		_, err := printableKey(bad)
		assert.ErrorIs(t, err, ErrUnknownKey, bad)
	}
}

func TestSpecialKey(t *testing.T) {
	vk, err := specialKey("]")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xDD), vk)

	vk, err = specialKey("ESC")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x1B), vk)

	_, err = specialKey("f13")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestRepeat(t *testing.T) {
	var events []string
	d := New(50*time.Millisecond, 500*time.Millisecond)
	d.sleep = func(dur time.Duration) { events = append(events, "sleep "+dur.String()) }
	tap := func() error {
		events = append(events, "tap")
		return nil
	}

	require.NoError(t, d.repeat(tap, true))
	assert.Equal(t, []string{"tap", "sleep 500ms", "tap"}, events, "second tap waits for the panel to close")

	events = nil
	require.NoError(t, d.repeat(tap, false))
	assert.Equal(t, []string{"tap"}, events)
}

func TestRepeat_FirstTapFails(t *testing.T) {
	d := New(0, time.Second)
	d.sleep = func(time.Duration) { t.Fatal("no pause after a failed tap") }
	calls := 0

	err := d.repeat(func() error {
		calls++
		return ErrUnsupported
	}, true)

	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, 1, calls)
}
