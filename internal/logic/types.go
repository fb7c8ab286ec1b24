// Package logic contains the timing core for the PWM LED controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Source identifies which pushbutton produced a press event.
type Source int

const (
	// SourceNone means no press has been recorded yet.
	SourceNone Source = iota
	SourceA
	SourceB
)

// String returns "A", "B" or "none".
func (s Source) String() string {
	switch s {
	case SourceA:
		return "A"
	case SourceB:
		return "B"
	default:
		return "none"
	}
}

// PressEvent is a single button press edge. Ephemeral: produced by the
// button driver, consumed immediately by the Estimator, never stored.
type PressEvent struct {
	Source Source
	Time   time.Time
}

// Period is the fixed software PWM cycle length.
const Period = 10 * time.Millisecond

// MinOnTick is the ON duration used when every channel is at 0% duty.
// The scheduler keeps a minimal non-zero ON phase rather than stopping,
// so the toggle loop always makes progress. True 0% would stop the
// toggle entirely; changing this changes observable PWM behavior.
const MinOnTick = time.Duration(1)

// Running-average compression thresholds. Once the valid alternation
// count exceeds decayTrigger, history is compressed down to decayCount
// samples at the current average. Fixed policy constants.
const (
	decayTrigger = 100
	decayCount   = 20
)

// AlternationState is a point-in-time copy of the estimator's state.
// It is a value type, safe to use after the estimator's lock is released.
type AlternationState struct {
	// LastSource is the button that pressed most recently.
	LastSource Source
	// LastTime is when it pressed.
	LastTime time.Time
	// ValidCount is the number of alternating presses contributing to
	// the average, bounded by the decay policy.
	ValidCount uint64
	// AverageNs is the running average interval between alternating
	// presses, in nanoseconds. Only meaningful once ValidCount > 0.
	AverageNs uint64
	// AccumulatedNs is the renormalized interval accumulator
	// (AverageNs * ValidCount after every update).
	AccumulatedNs uint64
	// PressCount counts every press, alternating or not.
	PressCount uint64
}

// Speed returns the press speed in presses per second, truncated toward
// zero. Returns 0 before the first valid alternation.
func (s AlternationState) Speed() uint64 {
	if s.ValidCount == 0 || s.AverageNs == 0 {
		return 0
	}
	return uint64(time.Second) / s.AverageNs
}
