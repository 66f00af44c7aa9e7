package main

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/QuantumEF/aircond/internal/control"
	"github.com/QuantumEF/aircond/internal/dht11"
	"github.com/QuantumEF/aircond/internal/feed"
	"github.com/QuantumEF/aircond/internal/mqtt"
	"github.com/QuantumEF/aircond/internal/relay"
	"github.com/QuantumEF/aircond/internal/status"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's
// goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

type harness struct {
	sensor   *dht11.FakeSensor
	relay    *relay.FakeDriver
	pub      *mqtt.FakePublisher
	tracker  *status.Tracker
	readings *feed.Feed[dht11.Reading]
	configs  *feed.Slot[control.Config]
	statuses *feed.Slot[control.Status]
	deps     loopDeps
}

// newHarness wires runLoop dependencies around fakes. The controller config
// uses short intervals so scenarios fit in a handful of 1-second ticks.
func newHarness(sensor *dht11.FakeSensor, heartbeat time.Duration) *harness {
	h := &harness{
		sensor:   sensor,
		relay:    relay.NewFakeDriver(),
		pub:      mqtt.NewFakePublisher(),
		readings: feed.New[dht11.Reading](),
		configs:  feed.NewSlot[control.Config](),
		statuses: feed.NewSlot[control.Status](),
	}
	h.pub.Connected = true
	h.tracker = status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{
		SampleMs: 1000,
		Broker:   "tcp://test:1883",
	})
	h.deps = loopDeps{
		sensor:     sensor,
		relay:      h.relay,
		publisher:  h.pub,
		mqttStatus: h.pub,
		tracker:    h.tracker,
		readings:   h.readings,
		configs:    h.configs,
		statuses:   h.statuses,
		controller: control.Config{
			ThresholdTemperature: 20,
			MinimumRuntime:       3 * time.Second,
			CooldownTime:         2 * time.Second,
		},
		heartbeat: heartbeat,
	}
	return h
}

// drive runs the loop for nTicks ticks and then delivers signal.
func (h *harness) drive(t *testing.T, clock func() time.Time, nTicks int, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(h.deps, clock, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

// hotSensor returns a FakeSensor that always reads the given temperature.
func hotSensor(temperature int8) *dht11.FakeSensor {
	return dht11.NewFakeSensor(dht11.LanesFor(temperature, 60))
}

func TestRunLoopStartupRelayOffAndStatusPublished(t *testing.T) {
	h := newHarness(hotSensor(25), 0)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 0, syscall.SIGTERM)

	if len(h.relay.Writes) == 0 || h.relay.Writes[0] != false {
		t.Error("relay must be driven off at startup")
	}

	st, ok := h.statuses.Peek()
	if !ok {
		t.Fatal("expected initial status publication")
	}
	if st.State.Kind != control.StateCooldown {
		t.Errorf("initial state: got %s, want COOLDOWN", st.State.Kind)
	}
}

func TestRunLoopWarmupSamplesDiscarded(t *testing.T) {
	h := newHarness(hotSensor(25), 0)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, warmupSamples, syscall.SIGTERM)

	if _, _, ok := h.readings.Latest(); ok {
		t.Error("warm-up samples must not be published")
	}
	if len(h.pub.Readings) != 0 {
		t.Errorf("expected 0 published readings, got %d", len(h.pub.Readings))
	}
	snap := h.tracker.Snapshot()
	if snap.Counts.Samples != 0 {
		t.Errorf("warm-up samples counted: %d", snap.Counts.Samples)
	}
}

func TestRunLoopFullScenario(t *testing.T) {
	// 1-second ticks against cooldown=2s, runtime=3s, threshold=20, temp=25:
	// ticks 1-2 warm up, tick 3 leaves the startup cooldown, tick 4 starts
	// running, tick 8 is the first instant past the minimum runtime.
	h := newHarness(hotSensor(25), 0)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 8, syscall.SIGTERM)

	wantEvents := []control.StateKind{
		control.StateIdle,
		control.StateRunning,
		control.StateCooldown,
	}
	if len(h.pub.Events) != len(wantEvents) {
		t.Fatalf("expected %d transition events, got %d", len(wantEvents), len(h.pub.Events))
	}
	for i, want := range wantEvents {
		if h.pub.Events[i].To != want {
			t.Errorf("event %d: got %s, want %s", i, h.pub.Events[i].To, want)
		}
	}

	// 6 good post-warmup samples published with increasing seq.
	if len(h.pub.Readings) != 6 {
		t.Fatalf("expected 6 published readings, got %d", len(h.pub.Readings))
	}
	for i, r := range h.pub.Readings {
		if r.Seq != uint64(i+1) {
			t.Errorf("reading %d: seq %d, want %d", i, r.Seq, i+1)
		}
		if r.Reading.Temperature != 25 {
			t.Errorf("reading %d: temperature %d", i, r.Reading.Temperature)
		}
	}

	// Relay trace: off at startup, off entering Idle, on entering Running,
	// off entering Cooldown, off again on shutdown.
	wantRelay := []bool{false, false, true, false, false}
	if len(h.relay.Writes) != len(wantRelay) {
		t.Fatalf("relay writes: got %v, want %v", h.relay.Writes, wantRelay)
	}
	for i, want := range wantRelay {
		if h.relay.Writes[i] != want {
			t.Errorf("relay write %d: got %v, want %v", i, h.relay.Writes[i], want)
		}
	}

	snap := h.tracker.Snapshot()
	if snap.Counts.Samples != 6 {
		t.Errorf("samples counted: got %d, want 6", snap.Counts.Samples)
	}
	if snap.Counts.Transitions != 3 {
		t.Errorf("transitions counted: got %d, want 3", snap.Counts.Transitions)
	}

	st, ok := h.statuses.Peek()
	if !ok || st.State.Kind != control.StateCooldown {
		t.Errorf("final status: got %+v", st)
	}
}

func TestRunLoopSensorFailureKeepsLastReading(t *testing.T) {
	sensor := hotSensor(25)
	// Calls 0-2 succeed (two warm-ups and one published reading), then two
	// acquisitions time out.
	sensor.Errs = []error{nil, nil, nil, dht11.ErrNoResponse, dht11.ErrNoResponse}

	h := newHarness(sensor, 0)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 5, syscall.SIGTERM)

	if len(h.pub.Readings) != 1 {
		t.Fatalf("expected 1 published reading, got %d", len(h.pub.Readings))
	}

	snap := h.tracker.Snapshot()
	if snap.SensorOK {
		t.Error("expected sensor_ok=false after failures")
	}
	if snap.FailStreak != 2 {
		t.Errorf("fail streak: got %d, want 2", snap.FailStreak)
	}
	if snap.Counts.NoResponse != 2 {
		t.Errorf("no_response count: got %d, want 2", snap.Counts.NoResponse)
	}
	// The last good reading stays current.
	if snap.Reading.Temperature != 25 {
		t.Errorf("reading lost after failure: %+v", snap.Reading)
	}
	if _, seq, _ := h.readings.Latest(); seq != 1 {
		t.Errorf("feed seq advanced on failed samples: %d", seq)
	}
}

func TestRunLoopChecksumErrorDiscardsSample(t *testing.T) {
	bad := dht11.LanesFor(25, 60)
	bad[4] ^= 0xFF
	sensor := dht11.NewFakeSensor(
		dht11.LanesFor(25, 60), // warm-up
		dht11.LanesFor(25, 60), // warm-up
		dht11.LanesFor(25, 60), // published
		bad,                    // discarded
	)

	h := newHarness(sensor, 0)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 4, syscall.SIGTERM)

	if len(h.pub.Readings) != 1 {
		t.Fatalf("expected 1 published reading, got %d", len(h.pub.Readings))
	}
	snap := h.tracker.Snapshot()
	if snap.Counts.ChecksumErrors != 1 {
		t.Errorf("checksum errors: got %d, want 1", snap.Counts.ChecksumErrors)
	}
	if _, seq, _ := h.readings.Latest(); seq != 1 {
		t.Errorf("feed seq advanced on discarded sample: %d", seq)
	}
}

func TestRunLoopAppliesPendingConfig(t *testing.T) {
	h := newHarness(hotSensor(25), 0)
	// Raising the threshold above the reading keeps the controller idle.
	h.configs.Put(control.Config{
		ThresholdTemperature: 30,
		MinimumRuntime:       3 * time.Second,
		CooldownTime:         2 * time.Second,
	})
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 6, syscall.SIGTERM)

	// Only the startup-cooldown expiry fires; 25°C never exceeds the new
	// 30°C threshold.
	if len(h.pub.Events) != 1 || h.pub.Events[0].To != control.StateIdle {
		t.Fatalf("expected single IDLE event, got %+v", h.pub.Events)
	}

	st, ok := h.statuses.Peek()
	if !ok {
		t.Fatal("expected status publication")
	}
	if st.Config.ThresholdTemperature != 30 {
		t.Errorf("applied threshold: got %d, want 30", st.Config.ThresholdTemperature)
	}

	if _, pending := h.configs.TryTake(); pending {
		t.Error("config slot should be drained")
	}
}

func TestRunLoopRejectsInvalidConfig(t *testing.T) {
	h := newHarness(hotSensor(25), 0)
	h.configs.Put(control.Config{
		ThresholdTemperature: 30,
		MinimumRuntime:       0, // invalid
		CooldownTime:         2 * time.Second,
	})
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 6, syscall.SIGTERM)

	// The old 20°C threshold stays in force, so the controller still starts
	// running at 25°C.
	running := false
	for _, e := range h.pub.Events {
		if e.To == control.StateRunning {
			running = true
		}
	}
	if !running {
		t.Error("invalid config must not replace the active one")
	}

	st, _ := h.statuses.Peek()
	if st.Config.ThresholdTemperature != 20 {
		t.Errorf("threshold changed by invalid config: %d", st.Config.ThresholdTemperature)
	}
}

func TestRunLoopShutdownPublishesEventAndDropsRelay(t *testing.T) {
	h := newHarness(hotSensor(25), 0)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 4, syscall.SIGINT)

	if h.relay.On {
		t.Error("relay must be off after shutdown")
	}
	last := h.relay.Writes[len(h.relay.Writes)-1]
	if last != false {
		t.Error("final relay write must de-energize")
	}

	if len(h.pub.SystemEvents) == 0 {
		t.Fatal("expected a shutdown system event")
	}
	se := h.pub.SystemEvents[len(h.pub.SystemEvents)-1]
	if se.Event != "SHUTDOWN" || se.Reason != "SIGINT" {
		t.Errorf("shutdown event: %+v", se)
	}
	if !se.Retained {
		t.Error("shutdown event should be retained")
	}
	if se.RawPayload == nil {
		t.Error("shutdown event should carry the status snapshot")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// 1-second ticks with a 5-second heartbeat: exactly one heartbeat fires
	// within 8 ticks (at t0+5s; the next would be due at t0+10s).
	h := newHarness(hotSensor(25), 5*time.Second)
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	h.drive(t, clock, 8, syscall.SIGTERM)

	heartbeats := 0
	for _, se := range h.pub.SystemEvents {
		if se.Event == "HEARTBEAT" {
			heartbeats++
			if se.RawPayload == nil {
				t.Error("heartbeat should carry the status snapshot")
			}
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 heartbeat, got %d", heartbeats)
	}
}

func TestRunLoopWithoutMQTT(t *testing.T) {
	h := newHarness(hotSensor(25), 0)
	h.deps.publisher = nil
	h.deps.mqttStatus = nil
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	// Must run a full scenario and shut down cleanly with no publisher.
	h.drive(t, clock, 8, syscall.SIGTERM)

	if _, seq, ok := h.readings.Latest(); !ok || seq != 6 {
		t.Errorf("readings not distributed without MQTT: seq=%d ok=%v", seq, ok)
	}
}
