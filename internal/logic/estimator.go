package logic

import (
	"sync"
	"time"
)

// Estimator measures how fast the two buttons are pressed alternately.
// It keeps a running average of the interval between A→B and B→A presses
// and ignores repeated presses of the same button, so spamming one button
// does not inflate the speed.
//
// Safe for concurrent use: both button handlers and status readers share
// a single mutex. Every critical section is bounded integer arithmetic
// with no allocation and no blocking calls, so it is safe to enter from
// latency-sensitive event callbacks.
type Estimator struct {
	mu sync.Mutex

	lastSource Source
	lastTime   time.Time
	validCount uint64
	accumNs    uint64
	avgNs      uint64
	pressCount uint64
}

// NewEstimator creates an Estimator with no press recorded.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// Press records a button press from src at time t. Timestamps must come
// from a monotonic clock; intervals between presses are what matter, not
// absolute values.
//
// A press only contributes to the average when it alternates with the
// previous press (src differs from the last recorded source). The first
// press, and any same-button repeat, just updates the last-press record
// and the total counter.
func (e *Estimator) Press(src Source, t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastSource != SourceNone && e.lastSource != src {
		interval := t.Sub(e.lastTime)
		if interval < 0 {
			interval = 0
		}
		e.accumNs += uint64(interval)
		e.validCount++

		// Divide then renormalize, so the accumulator and the average
		// stay mutually consistent instead of drifting apart as the
		// integer division drops remainders.
		e.avgNs = e.accumNs / e.validCount
		e.accumNs = e.avgNs * e.validCount

		// Compress history to bound counter growth. Future intervals
		// are averaged against 20 synthetic samples at the current
		// average, biasing the estimate toward recent presses.
		if e.validCount > decayTrigger {
			e.accumNs = e.avgNs * decayCount
			e.validCount = decayCount
		}
	}

	e.lastSource = src
	e.lastTime = t
	e.pressCount++
}

// Speed returns the current press speed in presses per second.
// Returns 0 before the first valid alternation.
func (e *Estimator) Speed() uint64 {
	return e.State().Speed()
}

// State returns a point-in-time copy of the estimator state.
func (e *Estimator) State() AlternationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return AlternationState{
		LastSource:    e.lastSource,
		LastTime:      e.lastTime,
		ValidCount:    e.validCount,
		AverageNs:     e.avgNs,
		AccumulatedNs: e.accumNs,
		PressCount:    e.pressCount,
	}
}
