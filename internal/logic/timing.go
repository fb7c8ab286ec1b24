package logic

import "time"

// Timing is one PWM cycle split into an ON and an OFF phase.
// On + Off always equals Period.
type Timing struct {
	On  time.Duration
	Off time.Duration
}

// ComputeTiming derives the PWM phase durations from the three channel
// duty cycles. The shared clock runs at the ON fraction of the highest
// channel; per-channel brightness differences come from output gating in
// the scheduler, not from independent timing.
//
// Inputs are assumed already validated to [0,100] by the duty store.
func ComputeTiming(d1, d2, d3 int) Timing {
	max := d1
	if d2 > max {
		max = d2
	}
	if d3 > max {
		max = d3
	}

	switch {
	case max == 0:
		// Keep a minimal ON phase so the toggle loop still progresses.
		return Timing{On: MinOnTick, Off: Period - MinOnTick}
	case max == 100:
		return Timing{On: Period, Off: 0}
	default:
		on := Period * time.Duration(max) / 100
		return Timing{On: on, Off: Period - on}
	}
}

// HeldOn reports whether this timing represents a continuously-ON output
// (100% duty). The scheduler pins the phase ON instead of scheduling a
// zero-length OFF phase.
func (t Timing) HeldOn() bool {
	return t.Off == 0
}
