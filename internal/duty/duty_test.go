package duty

import (
	"errors"
	"sync"
	"testing"
)

func TestSetAndGet(t *testing.T) {
	s := NewStore()

	if err := s.Set(0, 25); err != nil {
		t.Fatalf("Set(0, 25): %v", err)
	}
	if err := s.Set(2, 100); err != nil {
		t.Fatalf("Set(2, 100): %v", err)
	}

	d1, d2, d3 := s.Values()
	if d1 != 25 || d2 != 0 || d3 != 100 {
		t.Errorf("expected (25,0,100), got (%d,%d,%d)", d1, d2, d3)
	}

	v, err := s.Get(2)
	if err != nil {
		t.Fatalf("Get(2): %v", err)
	}
	if v != 100 {
		t.Errorf("expected 100, got %d", v)
	}
}

func TestSetRejectsOutOfRange(t *testing.T) {
	s := NewStore()
	if err := s.Set(1, 40); err != nil {
		t.Fatalf("Set(1, 40): %v", err)
	}

	tests := []struct {
		name    string
		channel int
		value   int
	}{
		{"above max", 1, 150},
		{"just above max", 1, 101},
		{"negative", 1, -1},
		{"channel too high", 3, 50},
		{"channel negative", -1, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Set(tt.channel, tt.value)
			if !errors.Is(err, ErrInvalidDuty) {
				t.Errorf("expected ErrInvalidDuty, got %v", err)
			}
		})
	}

	// Prior value must be readable unchanged after every rejection.
	if v, _ := s.Get(1); v != 40 {
		t.Errorf("expected channel 1 unchanged at 40, got %d", v)
	}
}

func TestSetAllAtomic(t *testing.T) {
	s := NewStore()
	if err := s.SetAll(5, 6, 7); err != nil {
		t.Fatalf("SetAll(5,6,7): %v", err)
	}

	// One bad value rejects the whole triplet.
	if err := s.SetAll(10, 20, 150); !errors.Is(err, ErrInvalidDuty) {
		t.Fatalf("expected ErrInvalidDuty, got %v", err)
	}

	d1, d2, d3 := s.Values()
	if d1 != 5 || d2 != 6 || d3 != 7 {
		t.Errorf("expected (5,6,7) unchanged, got (%d,%d,%d)", d1, d2, d3)
	}
}

func TestParseTriplet(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		d1, d2, d3 int
		wantErr    bool
	}{
		{"simple", "10 20 30", 10, 20, 30, false},
		{"extra whitespace", "  0\t50  100\n", 0, 50, 100, false},
		{"too few tokens", "10 20", 0, 0, 0, true},
		{"too many tokens", "10 20 30 40", 0, 0, 0, true},
		{"non-numeric", "10 twenty 30", 0, 0, 0, true},
		{"out of range", "10 20 150", 0, 0, 0, true},
		{"negative", "10 -1 30", 0, 0, 0, true},
		{"empty", "", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d1, d2, d3, err := ParseTriplet(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuty) {
					t.Errorf("expected ErrInvalidDuty, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d1 != tt.d1 || d2 != tt.d2 || d3 != tt.d3 {
				t.Errorf("expected (%d,%d,%d), got (%d,%d,%d)", tt.d1, tt.d2, tt.d3, d1, d2, d3)
			}
		})
	}
}

// Values must always return a triplet written by a single SetAll, never a
// mix of two concurrent writes.
func TestSnapshotConsistency(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			v := i % (MaxDuty + 1)
			if err := s.SetAll(v, v, v); err != nil {
				t.Errorf("SetAll: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 10000; i++ {
		d1, d2, d3 := s.Values()
		if d1 != d2 || d2 != d3 {
			t.Fatalf("torn snapshot: (%d,%d,%d)", d1, d2, d3)
		}
	}
	close(done)
	wg.Wait()
}
