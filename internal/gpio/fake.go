package gpio

import (
	"sync"
	"time"

	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/logic"
)

// Transition records a single output change observed by FakeOutputs.
type Transition struct {
	Channel int
	On      bool
}

// FakeOutputs is a test double that records every output transition.
// Safe for concurrent use.
type FakeOutputs struct {
	mu sync.Mutex

	// levels holds the current level of each channel.
	levels [duty.NumChannels]bool

	// transitions records every Set call in order.
	transitions []Transition

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutputs creates a FakeOutputs with all channels off.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// Set records the transition and updates the channel level.
func (f *FakeOutputs) Set(channel int, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.levels[channel] = on
	f.transitions = append(f.transitions, Transition{Channel: channel, On: on})
	return nil
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Levels returns the current level of each channel.
func (f *FakeOutputs) Levels() [duty.NumChannels]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels
}

// Transitions returns a copy of every recorded Set call.
func (f *FakeOutputs) Transitions() []Transition {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Transition, len(f.transitions))
	copy(out, f.transitions)
	return out
}

// Reset clears recorded transitions and levels.
func (f *FakeOutputs) Reset() {
	f.mu.Lock()
	f.levels = [duty.NumChannels]bool{}
	f.transitions = nil
	f.Closed = false
	f.SetError = nil
	f.mu.Unlock()
}

// FakeButtons feeds scripted press events to a handler, standing in for
// the edge-triggered button driver.
type FakeButtons struct {
	mu      sync.Mutex
	handler PressHandler

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeButtons creates a FakeButtons delivering to fn.
func NewFakeButtons(fn PressHandler) *FakeButtons {
	return &FakeButtons{handler: fn}
}

// Press delivers one press event synchronously. Events after Close are
// dropped, mirroring the real driver's close-then-teardown guarantee.
func (f *FakeButtons) Press(src logic.Source, t time.Time) {
	f.mu.Lock()
	closed := f.Closed
	fn := f.handler
	f.mu.Unlock()
	if closed || fn == nil {
		return
	}
	fn(logic.PressEvent{Source: src, Time: t})
}

// Close stops event delivery.
func (f *FakeButtons) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
