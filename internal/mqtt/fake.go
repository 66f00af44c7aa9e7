package mqtt

import (
	"time"

	"github.com/QuantumEF/aircond/internal/dht11"
)

// PublishedReading records a reading publish for test assertions.
type PublishedReading struct {
	Reading   dht11.Reading
	Seq       uint64
	Timestamp time.Time
}

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Readings contains all sensor readings that were published.
	Readings []PublishedReading

	// Events contains all controller transition events that were published.
	Events []Event

	// Payloads contains the JSON payloads for transition events.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishReadingError, if set, will be returned by PublishReading.
	PublishReadingError error

	// PublishError, if set, will be returned by PublishEvent.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishReading records the sensor reading.
func (f *FakePublisher) PublishReading(reading dht11.Reading, seq uint64, ts time.Time) error {
	if f.PublishReadingError != nil {
		return f.PublishReadingError
	}

	f.Readings = append(f.Readings, PublishedReading{Reading: reading, Seq: seq, Timestamp: ts})
	return nil
}

// PublishEvent records the transition event.
func (f *FakePublisher) PublishEvent(event Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Events = append(f.Events, event)

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Readings = nil
	f.Events = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishReadingError = nil
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
