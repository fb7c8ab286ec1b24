package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Speed         uint64     `json:"speed_pps"`
	Duty          DutyJSON   `json:"duty"`
	Presses       PressJSON  `json:"presses"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// DutyJSON is the JSON representation of the duty cycle triplet.
type DutyJSON struct {
	LED1 int `json:"led1"`
	LED2 int `json:"led2"`
	LED3 int `json:"led3"`
}

// PressJSON is the JSON representation of the press counters.
type PressJSON struct {
	Total       uint64 `json:"total"`
	Alternating uint64 `json:"alternating"`
	AverageNs   uint64 `json:"average_interval_ns"`
	LastSource  string `json:"last_source"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Speed: snap.Speed(),
		Duty: DutyJSON{
			LED1: snap.Duty[0],
			LED2: snap.Duty[1],
			LED3: snap.Duty[2],
		},
		Presses: PressJSON{
			Total:       snap.Alternation.PressCount,
			Alternating: snap.Alternation.ValidCount,
			AverageNs:   snap.Alternation.AverageNs,
			LastSource:  snap.Alternation.LastSource.String(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			HeartbeatMs: snap.Config.HeartbeatMs,
			DebounceMs:  snap.Config.DebounceMs,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
