// Package control contains the hysteresis thermostat state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package control

import (
	"errors"
	"time"
)

// StateKind identifies the controller state.
type StateKind string

const (
	StateIdle     StateKind = "IDLE"
	StateRunning  StateKind = "RUNNING"
	StateCooldown StateKind = "COOLDOWN"
)

// State is the controller state. StartTime is set for Running and Cooldown
// (the instant the state was entered) and zero for Idle.
type State struct {
	Kind      StateKind
	StartTime time.Time
}

// Config is the controller configuration. The compressor turns on when the
// temperature exceeds ThresholdTemperature, runs for at least MinimumRuntime,
// and then rests for CooldownTime before it may start again.
type Config struct {
	ThresholdTemperature int8
	MinimumRuntime       time.Duration
	CooldownTime         time.Duration
}

// ErrInvalidConfig is returned for configs that would let the relay
// short-cycle or never switch.
var ErrInvalidConfig = errors.New("control: invalid config")

// Validate rejects non-positive durations. A zero or negative runtime or
// cooldown would defeat the hysteresis and rapid-cycle the compressor.
func (c Config) Validate() error {
	if c.MinimumRuntime <= 0 {
		return ErrInvalidConfig
	}
	if c.CooldownTime <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Status is an atomic snapshot of state plus active config, taken whenever
// the controller transitions. Value type — never a torn read.
type Status struct {
	State  State
	Config Config
}

// Remaining returns how long the current Running or Cooldown interval has
// left, for display. Zero for Idle or an already-expired interval.
func (s Status) Remaining(now time.Time) time.Duration {
	var d time.Duration
	switch s.State.Kind {
	case StateRunning:
		d = s.Config.MinimumRuntime - now.Sub(s.State.StartTime)
	case StateCooldown:
		d = s.Config.CooldownTime - now.Sub(s.State.StartTime)
	default:
		return 0
	}
	if d < 0 {
		return 0
	}
	return d
}
