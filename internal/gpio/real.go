//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/logic"
)

// RealOutputs drives the LED lines through the Linux GPIO character device.
type RealOutputs struct {
	chip  *gpiocdev.Chip
	lines [duty.NumChannels]*gpiocdev.Line
}

// NewRealOutputs requests the three LED pins as outputs, initially low.
// On any failure, lines already acquired are released in reverse order
// before the error is returned.
func NewRealOutputs(pins [duty.NumChannels]int) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	o := &RealOutputs{chip: chip}
	for i, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("pwm-led"))
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				o.lines[j].Close()
			}
			chip.Close()
			return nil, fmt.Errorf("request LED%d pin %d: %w", i+1, pin, err)
		}
		o.lines[i] = line
	}

	return o, nil
}

// Set drives one LED line high or low.
func (o *RealOutputs) Set(channel int, on bool) error {
	if channel < 0 || channel >= duty.NumChannels {
		return fmt.Errorf("set output: channel %d out of range", channel)
	}
	v := 0
	if on {
		v = 1
	}
	if err := o.lines[channel].SetValue(v); err != nil {
		return fmt.Errorf("set LED%d: %w", channel+1, err)
	}
	return nil
}

// Close turns every LED off and releases GPIO resources.
func (o *RealOutputs) Close() error {
	var errs []error

	for i, line := range o.lines {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear LED%d: %w", i+1, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED%d: %w", i+1, err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealButtons watches the two button pins for rising edges and forwards
// each press to the handler with the kernel's event timestamp.
type RealButtons struct {
	chip  *gpiocdev.Chip
	lineA *gpiocdev.Line
	lineB *gpiocdev.Line

	// Kernel event timestamps are monotonic durations from an
	// unspecified epoch. They are anchored to wall time once, at the
	// first event, so later events keep the kernel's relative precision.
	mu   sync.Mutex
	base time.Time
}

// NewRealButtons requests the button pins as rising-edge inputs with
// pull-down (matching Pi boot defaults) and begins delivering events to
// fn. Edge detection and any debounce live here, not in the estimator.
func NewRealButtons(pinA, pinB int, debounce time.Duration, fn PressHandler) (*RealButtons, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealButtons{chip: chip}

	opts := func(src logic.Source) []gpiocdev.LineReqOption {
		o := []gpiocdev.LineReqOption{
			gpiocdev.WithPullDown,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithConsumer("pwm-led"),
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				fn(logic.PressEvent{Source: src, Time: b.eventTime(evt.Timestamp)})
			}),
		}
		if debounce > 0 {
			o = append(o, gpiocdev.WithDebounce(debounce))
		}
		return o
	}

	b.lineA, err = chip.RequestLine(pinA, opts(logic.SourceA)...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button A pin %d: %w", pinA, err)
	}

	b.lineB, err = chip.RequestLine(pinB, opts(logic.SourceB)...)
	if err != nil {
		b.lineA.Close()
		chip.Close()
		return nil, fmt.Errorf("request button B pin %d: %w", pinB, err)
	}

	return b, nil
}

func (b *RealButtons) eventTime(ts time.Duration) time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.base.IsZero() {
		b.base = time.Now().Add(-ts)
	}
	return b.base.Add(ts)
}

// Close stops event delivery and releases the button lines. After Close
// returns, the handler will not be called again, so state it writes to
// can be safely torn down.
func (b *RealButtons) Close() error {
	var errs []error

	if b.lineA != nil {
		if err := b.lineA.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button A: %w", err))
		}
	}
	if b.lineB != nil {
		if err := b.lineB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button B: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
