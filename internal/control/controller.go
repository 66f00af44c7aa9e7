package control

import "time"

// Controller is the three-state hysteresis thermostat. One temperature
// sample per tick drives at most one transition. Not safe for concurrent
// use; the sampling loop is the single owner, and other tasks express
// config changes through a pending slot, never by direct mutation.
type Controller struct {
	state State
	cfg   Config
}

// New creates a controller in Cooldown. Starting in Cooldown is the
// fail-safe: the relay stays off and cannot energize until one full
// cooldown interval has elapsed, even if the first reading is hot.
func New(cfg Config, now time.Time) *Controller {
	return &Controller{
		state: State{Kind: StateCooldown, StartTime: now},
		cfg:   cfg,
	}
}

// Update evaluates one temperature sample and returns whether a state
// transition occurred. Callers use the return to publish a fresh Status
// and to avoid redundant relay writes.
//
// Once Running, the relay stays on for the full minimum runtime even if
// the temperature drops below threshold — the runtime is a hard floor,
// not re-evaluated against temperature.
func (c *Controller) Update(temperature int8, now time.Time) bool {
	switch c.state.Kind {
	case StateIdle:
		if temperature > c.cfg.ThresholdTemperature {
			c.state = State{Kind: StateRunning, StartTime: now}
			return true
		}

	case StateRunning:
		if now.After(c.state.StartTime.Add(c.cfg.MinimumRuntime)) {
			c.state = State{Kind: StateCooldown, StartTime: now}
			return true
		}

	case StateCooldown:
		if now.After(c.state.StartTime.Add(c.cfg.CooldownTime)) {
			c.state = State{Kind: StateIdle}
			return true
		}
	}
	return false
}

// SetConfig replaces the active config between ticks. An in-progress
// Running or Cooldown interval keeps its recorded StartTime; only future
// threshold and duration comparisons see the new values.
func (c *Controller) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// RelayOn reports whether the relay output should be energized.
func (c *Controller) RelayOn() bool {
	return c.state.Kind == StateRunning
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Config returns the active config.
func (c *Controller) Config() Config {
	return c.cfg
}

// Status returns a consistent snapshot of state and active config.
func (c *Controller) Status() Status {
	return Status{State: c.state, Config: c.cfg}
}
