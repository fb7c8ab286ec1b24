// Package duty holds the per-channel PWM duty cycles behind a mutex.
// Writers are the control surfaces (HTTP, MQTT); the reader is the PWM
// scheduler, which needs a consistent snapshot of all three channels.
package duty

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// NumChannels is the number of LED channels.
const NumChannels = 3

// Duty cycle limits, in percent.
const (
	MinDuty = 0
	MaxDuty = 100
)

// ErrInvalidDuty is returned for out-of-range values, unknown channels,
// and malformed triplet input. The store is never modified on error.
var ErrInvalidDuty = errors.New("invalid duty cycle")

// Store holds the duty cycle of each channel, in percent.
// Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	duties [NumChannels]int
}

// NewStore creates a Store with all channels at 0%.
func NewStore() *Store {
	return &Store{}
}

// Set sets one channel's duty cycle. Channel is 0-based.
func (s *Store) Set(channel, value int) error {
	if channel < 0 || channel >= NumChannels {
		return fmt.Errorf("%w: channel %d out of range", ErrInvalidDuty, channel)
	}
	if value < MinDuty || value > MaxDuty {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidDuty, value, MinDuty, MaxDuty)
	}

	s.mu.Lock()
	s.duties[channel] = value
	s.mu.Unlock()
	return nil
}

// SetAll sets all three channels at once. Validation is all-or-nothing:
// if any value is out of range, no channel changes.
func (s *Store) SetAll(d1, d2, d3 int) error {
	for _, v := range []int{d1, d2, d3} {
		if v < MinDuty || v > MaxDuty {
			return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidDuty, v, MinDuty, MaxDuty)
		}
	}

	s.mu.Lock()
	s.duties = [NumChannels]int{d1, d2, d3}
	s.mu.Unlock()
	return nil
}

// Get returns one channel's duty cycle.
func (s *Store) Get(channel int) (int, error) {
	if channel < 0 || channel >= NumChannels {
		return 0, fmt.Errorf("%w: channel %d out of range", ErrInvalidDuty, channel)
	}

	s.mu.Lock()
	v := s.duties[channel]
	s.mu.Unlock()
	return v, nil
}

// Values returns all three duty cycles as a consistent snapshot: the
// triplet reflects a state that existed at a single instant, never a
// half-applied SetAll.
func (s *Store) Values() (d1, d2, d3 int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duties[0], s.duties[1], s.duties[2]
}

// ParseTriplet parses a whitespace-separated "d1 d2 d3" line, the wire
// format accepted by the combined write paths. Wrong token count,
// non-numeric tokens and out-of-range values all return ErrInvalidDuty.
func ParseTriplet(input string) (d1, d2, d3 int, err error) {
	fields := strings.Fields(input)
	if len(fields) != NumChannels {
		return 0, 0, 0, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidDuty, NumChannels, len(fields))
	}

	var vals [NumChannels]int
	for i, f := range fields {
		v, convErr := strconv.Atoi(f)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidDuty, f)
		}
		if v < MinDuty || v > MaxDuty {
			return 0, 0, 0, fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidDuty, v, MinDuty, MaxDuty)
		}
		vals[i] = v
	}

	return vals[0], vals[1], vals[2], nil
}
