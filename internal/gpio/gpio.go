// Package gpio provides the LED output and button input hardware with
// abstraction for testing. The real implementation uses the Linux GPIO
// character device; the fakes allow testing without hardware.
package gpio

import "github.com/sweeney/pwm-led/internal/logic"

// Outputs drives the three LED channels.
type Outputs interface {
	// Set asserts (true) or deasserts (false) one channel's output.
	// Channel is 0-based.
	Set(channel int, on bool) error

	// Close deasserts every channel and releases GPIO resources.
	Close() error
}

// Buttons delivers press events for the two pushbuttons. Delivery starts
// at construction; Close stops delivery before releasing the lines, so a
// handler never fires after Close returns.
type Buttons interface {
	Close() error
}

// PressHandler receives one call per press edge.
type PressHandler func(logic.PressEvent)

// Pin definitions (BCM numbering).
const (
	DefaultPinLED1 = 17
	DefaultPinLED2 = 27
	DefaultPinLED3 = 22
	DefaultPinBtnA = 23
	DefaultPinBtnB = 24
)
