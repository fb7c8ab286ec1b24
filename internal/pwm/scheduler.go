// Package pwm runs the shared software PWM cycle for the LED channels.
//
// A single ON/OFF clock runs at the ON fraction of the highest duty
// cycle. Per-channel brightness comes from gating: a channel at 0% never
// asserts, a channel at 100% never deasserts, everything in between
// blinks in lock-step with the shared clock. This is an approximation of
// independent per-channel PWM, kept deliberately.
package pwm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/gpio"
	"github.com/sweeney/pwm-led/internal/logic"
)

// Scheduler owns the PWM phase and timing. Retime and Tick share one
// mutex, so a mid-flight duty change can never expose a half-updated
// ON/OFF pair to the toggle.
type Scheduler struct {
	store *duty.Store
	out   gpio.Outputs

	mu     sync.Mutex
	timing logic.Timing
	phase  bool // true = ON
}

// New creates a Scheduler reading duty cycles from store and driving out.
// The phase starts ON; the first tick flips it OFF after the initial ON
// duration elapses.
func New(store *duty.Store, out gpio.Outputs) *Scheduler {
	s := &Scheduler{
		store: store,
		out:   out,
		phase: true,
	}
	s.timing = logic.ComputeTiming(store.Values())
	return s
}

// Retime recomputes the ON/OFF durations from the current duty cycles.
// Called by the control surfaces after every accepted duty write. The new
// timing takes effect at the next tick.
func (s *Scheduler) Retime() {
	d1, d2, d3 := s.store.Values()
	timing := logic.ComputeTiming(d1, d2, d3)

	s.mu.Lock()
	s.timing = timing
	s.mu.Unlock()
}

// Tick advances the PWM cycle by one phase and returns the interval until
// the next tick. An output sink failure is returned, not swallowed; the
// caller must treat it as fatal.
func (s *Scheduler) Tick() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d1, d2, d3 := s.store.Values()

	if s.timing.HeldOn() {
		// 100% duty: hold the output ON and keep ticking once per
		// period instead of scheduling the zero-length OFF phase.
		s.phase = true
		if err := s.applyOn(d1, d2, d3); err != nil {
			return 0, err
		}
		return logic.Period, nil
	}

	s.phase = !s.phase
	if s.phase {
		if err := s.applyOn(d1, d2, d3); err != nil {
			return 0, err
		}
		return s.timing.On, nil
	}
	if err := s.applyOff(d1, d2, d3); err != nil {
		return 0, err
	}
	return s.timing.Off, nil
}

// applyOn asserts each channel whose own duty is above 0.
func (s *Scheduler) applyOn(d1, d2, d3 int) error {
	for ch, d := range [duty.NumChannels]int{d1, d2, d3} {
		if d > 0 {
			if err := s.out.Set(ch, true); err != nil {
				return fmt.Errorf("assert channel %d: %w", ch, err)
			}
		}
	}
	return nil
}

// applyOff deasserts each channel whose own duty is below 100.
func (s *Scheduler) applyOff(d1, d2, d3 int) error {
	for ch, d := range [duty.NumChannels]int{d1, d2, d3} {
		if d < 100 {
			if err := s.out.Set(ch, false); err != nil {
				return fmt.Errorf("deassert channel %d: %w", ch, err)
			}
		}
	}
	return nil
}

// PhaseOn reports whether the shared clock is currently in its ON phase.
func (s *Scheduler) PhaseOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Run drives the toggle loop until ctx is canceled or the output sink
// fails. Each deadline is computed from the previous deadline rather
// than from "now", so per-tick latency does not accumulate as drift.
//
// Run returns nil on cancellation and an error only for an output
// failure; the loop itself never stops rescheduling.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	first := s.timing.On
	s.mu.Unlock()

	next := time.Now().Add(first)
	timer := time.NewTimer(first)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			interval, err := s.Tick()
			if err != nil {
				return fmt.Errorf("pwm tick: %w", err)
			}
			next = next.Add(interval)
			timer.Reset(time.Until(next))
		}
	}
}
