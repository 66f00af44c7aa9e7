// Package status provides a thread-safe status tracker for the aircond
// daemon. It is read by the HTTP handlers and serialized into MQTT system
// events.
package status

import (
	"sync"
	"time"

	"github.com/QuantumEF/aircond/internal/control"
	"github.com/QuantumEF/aircond/internal/dht11"
)

// Config contains daemon configuration for display.
type Config struct {
	SampleMs    int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	FeedAddr    string
	ConsoleDev  string
}

// Counts tracks sampling and controller activity since startup.
type Counts struct {
	Samples        int // good samples published
	ChecksumErrors int // samples discarded for bad checksum
	NoResponse     int // acquisitions that timed out
	Transitions    int // controller state transitions
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Reading       dht11.Reading
	ReadingSeq    uint64
	ReadingAt     time.Time
	SensorOK      bool
	FailStreak    int // consecutive failed acquisitions
	Controller    control.Status
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetReading records a good sample. Called from the sampling loop on every
// successful tick.
func (t *Tracker) SetReading(r dht11.Reading, seq uint64, at time.Time) {
	t.mu.Lock()
	t.snap.Reading = r
	t.snap.ReadingSeq = seq
	t.snap.ReadingAt = at
	t.snap.SensorOK = true
	t.snap.FailStreak = 0
	t.snap.Counts.Samples++
	t.mu.Unlock()
}

// SensorFailed records a failed acquisition. The last good reading is kept;
// consumers see the degradation through SensorOK and the stale seq.
func (t *Tracker) SensorFailed(checksum bool) {
	t.mu.Lock()
	t.snap.SensorOK = false
	t.snap.FailStreak++
	if checksum {
		t.snap.Counts.ChecksumErrors++
	} else {
		t.snap.Counts.NoResponse++
	}
	t.mu.Unlock()
}

// SetController records the controller status after a transition.
func (t *Tracker) SetController(cs control.Status) {
	t.mu.Lock()
	t.snap.Controller = cs
	t.snap.Counts.Transitions++
	t.mu.Unlock()
}

// SetControllerQuiet records the controller status without counting a
// transition (startup publication).
func (t *Tracker) SetControllerQuiet(cs control.Status) {
	t.mu.Lock()
	t.snap.Controller = cs
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state stamped with
// the wall clock. Callers running on an injected clock use SnapshotAt so
// uptime and remaining-time stay consistent with their notion of now.
func (t *Tracker) Snapshot() Snapshot {
	return t.SnapshotAt(time.Now())
}

// SnapshotAt returns a point-in-time copy of the daemon state with Now set
// to the given time.
func (t *Tracker) SnapshotAt(now time.Time) Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = now
	return s
}
