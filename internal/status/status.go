// Package status renders point-in-time daemon state for the HTTP and
// MQTT surfaces. It holds no state of its own: formatting the same
// snapshot twice produces identical output.
package status

import (
	"fmt"
	"time"

	"github.com/sweeney/pwm-led/internal/duty"
	"github.com/sweeney/pwm-led/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Broker      string
	HTTPAddr    string
	HeartbeatMs int64
	DebounceMs  int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the sources' locks are released.
type Snapshot struct {
	Duty          [duty.NumChannels]int
	Alternation   logic.AlternationState
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Speed returns the button press speed in presses per second.
func (s Snapshot) Speed() uint64 {
	return s.Alternation.Speed()
}

// FormatStatusText renders the classic one-line status readout.
func FormatStatusText(st logic.AlternationState) string {
	return fmt.Sprintf("Button Press Speed: %d presses/second\n", st.Speed())
}
