package relay

// FakeDriver records relay writes for test assertions.
type FakeDriver struct {
	// On is the current relay state.
	On bool

	// Writes contains every state written, in order.
	Writes []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver for testing.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Set records the write.
func (d *FakeDriver) Set(on bool) error {
	if d.SetError != nil {
		return d.SetError
	}
	d.On = on
	d.Writes = append(d.Writes, on)
	return nil
}

// Close de-energizes and marks the driver closed.
func (d *FakeDriver) Close() error {
	d.On = false
	d.Closed = true
	return nil
}
