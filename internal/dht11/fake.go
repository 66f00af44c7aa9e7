package dht11

import "context"

// FakeSensor is a test double that returns scripted raw samples.
type FakeSensor struct {
	// Samples contains scripted raw samples to return.
	// Each successful call to Acquire consumes the next sample.
	// When exhausted, the last sample is returned repeatedly.
	Samples []RawSample

	// Errs is indexed by call number: a non-nil entry is returned instead
	// of a sample and does not consume one.
	Errs []error

	// index tracks current position in Samples
	index int

	// Acquired counts calls to Acquire.
	Acquired int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSensor creates a FakeSensor with the given samples.
func NewFakeSensor(samples ...RawSample) *FakeSensor {
	return &FakeSensor{Samples: samples}
}

// LanesFor builds a raw sample with a correct checksum for the given
// temperature and humidity. Helper for tests.
func LanesFor(temperature, humidity int8) RawSample {
	s := RawSample{byte(humidity), 0, byte(temperature), 0, 0}
	s[4] = s.Checksum()
	return s
}

// Acquire returns the next scripted sample or error.
func (f *FakeSensor) Acquire(ctx context.Context) (RawSample, error) {
	if err := ctx.Err(); err != nil {
		return RawSample{}, err
	}

	call := f.Acquired
	f.Acquired++

	if call < len(f.Errs) && f.Errs[call] != nil {
		return RawSample{}, f.Errs[call]
	}
	if len(f.Samples) == 0 {
		return RawSample{}, ErrNoResponse
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the script.
func (f *FakeSensor) Reset() {
	f.index = 0
	f.Acquired = 0
	f.Closed = false
}
