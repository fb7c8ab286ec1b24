// Package mqtt provides the MQTT control surface: status publishing and
// subscribed duty-cycle writes, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/pwm-led/internal/duty"
)

// TopicStatus carries lifecycle and heartbeat status events.
const TopicStatus = "leds/pwm/status"

// TopicDutySet accepts whole-triplet duty writes ("d1 d2 d3").
const TopicDutySet = "leds/pwm/duty/set"

// ChannelTopic returns the single-channel duty write topic for a 0-based
// channel, e.g. "leds/pwm/led1/duty/set".
func ChannelTopic(channel int) string {
	return fmt.Sprintf("leds/pwm/led%d/duty/set", channel+1)
}

// Publisher publishes status events to MQTT.
type Publisher interface {
	// PublishStatus sends a status event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishStatus(event StatusEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// DutyWriter applies duty-cycle writes arriving over MQTT. Implemented
// by the controller; rejected writes must leave state unchanged.
type DutyWriter interface {
	SetDuty(channel, value int) error
	WriteTriplet(input string) error
}

// StatusEvent is a status publication (startup, shutdown, heartbeat).
type StatusEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Speed      uint64 // presses per second at publish time
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatStatusPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// StatusPayload is the MQTT message payload for simple status events
// that don't carry a full snapshot.
type StatusPayload struct {
	Status StatusPayloadInner `json:"status"`
}

// StatusPayloadInner contains the status event details.
type StatusPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	Speed     uint64 `json:"speed_pps"`
}

// FormatStatusPayload creates the JSON payload for a status event.
// If event.RawPayload is set, it is returned directly (used for full
// snapshot publications).
func FormatStatusPayload(event StatusEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := StatusPayload{
		Status: StatusPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Speed:     event.Speed,
		},
	}
	return json.Marshal(payload)
}

// ApplyChannelWrite parses a single-channel duty payload and applies it.
func ApplyChannelWrite(w DutyWriter, channel int, payload []byte) error {
	v, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		return fmt.Errorf("%w: %q is not an integer", duty.ErrInvalidDuty, string(payload))
	}
	return w.SetDuty(channel, v)
}

// ApplyTripletWrite parses a "d1 d2 d3" payload and applies it.
func ApplyTripletWrite(w DutyWriter, payload []byte) error {
	return w.WriteTriplet(string(payload))
}
