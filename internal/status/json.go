package status

import (
	"encoding/json"
	"time"

	"github.com/QuantumEF/aircond/internal/control"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Temperature   int8           `json:"temperature_c"`
	Humidity      int8           `json:"humidity_pct"`
	ReadingSeq    uint64         `json:"reading_seq"`
	ReadingAt     string         `json:"reading_at,omitempty"`
	SensorOK      bool           `json:"sensor_ok"`
	FailStreak    int            `json:"sensor_fail_streak,omitempty"`
	Controller    ControllerJSON `json:"controller"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"counts"`
	Config        ConfigJSON     `json:"config"`
}

// ControllerJSON is the JSON representation of the controller status.
type ControllerJSON struct {
	State            string `json:"state"`
	StateSince       string `json:"state_since,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	RelayOn          bool   `json:"relay_on"`
	ThresholdC       int8   `json:"threshold_c"`
	MinRuntimeSecs   int64  `json:"min_runtime_seconds"`
	CooldownSecs     int64  `json:"cooldown_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Samples        int `json:"samples"`
	ChecksumErrors int `json:"checksum_errors"`
	NoResponse     int `json:"no_response"`
	Transitions    int `json:"transitions"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SampleMs    int64  `json:"sample_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	FeedAddr    string `json:"feed_addr"`
	ConsoleDev  string `json:"console_dev,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Controller.State.Kind)
	if state == "" {
		state = "UNKNOWN"
	}

	ctl := ControllerJSON{
		State:            state,
		RemainingSeconds: int64(snap.Controller.Remaining(snap.Now).Truncate(time.Second).Seconds()),
		RelayOn:          snap.Controller.State.Kind == control.StateRunning,
		ThresholdC:       snap.Controller.Config.ThresholdTemperature,
		MinRuntimeSecs:   int64(snap.Controller.Config.MinimumRuntime.Seconds()),
		CooldownSecs:     int64(snap.Controller.Config.CooldownTime.Seconds()),
	}
	if !snap.Controller.State.StartTime.IsZero() {
		ctl.StateSince = snap.Controller.State.StartTime.UTC().Format(time.RFC3339)
	}

	inner := StatusInner{
		Temperature:   snap.Reading.Temperature,
		Humidity:      snap.Reading.Humidity,
		ReadingSeq:    snap.ReadingSeq,
		SensorOK:      snap.SensorOK,
		FailStreak:    snap.FailStreak,
		Controller:    ctl,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Samples:        snap.Counts.Samples,
			ChecksumErrors: snap.Counts.ChecksumErrors,
			NoResponse:     snap.Counts.NoResponse,
			Transitions:    snap.Counts.Transitions,
		},
		Config: ConfigJSON{
			SampleMs:    snap.Config.SampleMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			FeedAddr:    snap.Config.FeedAddr,
			ConsoleDev:  snap.Config.ConsoleDev,
		},
	}
	if !snap.ReadingAt.IsZero() {
		inner.ReadingAt = snap.ReadingAt.UTC().Format(time.RFC3339)
	}
	return inner
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
