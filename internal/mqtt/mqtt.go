// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/QuantumEF/aircond/internal/control"
	"github.com/QuantumEF/aircond/internal/dht11"
)

// TopicReadings is the MQTT topic for periodic sensor readings.
const TopicReadings = "home/aircond/readings"

// Topic is the MQTT topic for controller transition events.
const Topic = "home/aircond/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/aircond/system"

// Publisher publishes readings and events to MQTT.
type Publisher interface {
	// PublishReading sends a sensor reading to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishReading(reading dht11.Reading, seq uint64, ts time.Time) error

	// PublishEvent sends a controller transition event to the broker.
	PublishEvent(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event represents a controller state transition.
type Event struct {
	Timestamp   time.Time
	From        control.StateKind
	To          control.StateKind
	Temperature int8 // reading that drove the transition
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string         // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string         // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Config     *SystemConfig  // daemon config, startup only
	Heartbeat  *HeartbeatInfo // uptime and counters, heartbeat only
	RawPayload []byte         // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool           // Whether the message should be retained by the broker
}

// SystemConfig is the daemon configuration carried by startup events.
type SystemConfig struct {
	SampleMs    int    `json:"sample_ms"`
	HeartbeatMs int    `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
}

// HeartbeatInfo carries uptime and event counters for heartbeat events.
type HeartbeatInfo struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	Counts        HeartbeatCounts `json:"counts"`
}

// HeartbeatCounts mirrors the sampling counters since startup.
type HeartbeatCounts struct {
	Samples        uint64 `json:"samples"`
	ChecksumErrors uint64 `json:"checksum_errors"`
	NoResponse     uint64 `json:"no_response"`
	Transitions    uint64 `json:"transitions"`
}

// ReadingPayload represents the MQTT message payload for a sensor reading.
type ReadingPayload struct {
	Reading ReadingInner `json:"reading"`
}

// ReadingInner contains the reading details.
type ReadingInner struct {
	Timestamp   string `json:"timestamp"`
	Seq         uint64 `json:"seq"`
	Temperature int8   `json:"temperature_c"`
	Humidity    int8   `json:"humidity_pct"`
}

// FormatReadingPayload creates the JSON payload for a sensor reading.
func FormatReadingPayload(reading dht11.Reading, seq uint64, ts time.Time) ([]byte, error) {
	payload := ReadingPayload{
		Reading: ReadingInner{
			Timestamp:   ts.UTC().Format(time.RFC3339),
			Seq:         seq,
			Temperature: reading.Temperature,
			Humidity:    reading.Humidity,
		},
	}
	return json.Marshal(payload)
}

// Payload represents the MQTT message payload for a transition event.
type Payload struct {
	Controller ControllerPayload `json:"controller"`
}

// ControllerPayload contains the transition details.
type ControllerPayload struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	From        string `json:"from"`
	Temperature int8   `json:"temperature_c"`
}

// FormatPayload creates the JSON payload for a controller transition event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		Controller: ControllerPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.To),
			From:        string(event.From),
			Temperature: event.Temperature,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reason    string         `json:"reason,omitempty"`
	Config    *SystemConfig  `json:"config,omitempty"`
	Heartbeat *HeartbeatInfo `json:"heartbeat,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
			Heartbeat: event.Heartbeat,
		},
	}
	return json.Marshal(payload)
}
