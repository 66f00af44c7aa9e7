package dht11

import (
	"context"
	"time"
)

// Sensor acquires raw samples from a DHT11.
type Sensor interface {
	// Acquire performs one request/response exchange and returns the five
	// raw byte lanes. Returns ErrNoResponse if the sensor does not answer
	// before the deadline. Must not be called concurrently with itself:
	// the sensor shares one data line and a second exchange would corrupt
	// the first.
	Acquire(ctx context.Context) (RawSample, error)

	// Close releases the data line.
	Close() error
}

// Protocol timing. The DHT11 is started by holding the line low for at
// least 18 ms; it then answers with an 80 us presence pulse followed by
// 40 data bits. Each bit is a 50 us low separator plus a high pulse whose
// width encodes the value: 26-28 us for 0, about 70 us for 1.
const (
	startLowTime = 20 * time.Millisecond

	// High pulses longer than this are ones. Halfway between the two
	// documented pulse widths, with margin for event latency.
	bitThreshold = 50 * time.Microsecond

	// The whole exchange after the start condition takes under 6 ms.
	// Anything slower than this is a dead sensor, not a slow one.
	exchangeTimeout = 250 * time.Millisecond

	// After the last bit the sensor releases the line and it stays high.
	// Within an exchange consecutive pulses are never more than ~130 us
	// apart, so this much silence marks the end of the exchange.
	quietWindow = time.Millisecond

	lanesPerSample = 5
	bitsPerSample  = lanesPerSample * 8
)

// assemble turns the last 40 high pulse widths into byte lanes.
// The earliest-received bit is the most significant bit of its lane; this
// left-shift-in ordering is the sensor's wire format.
func assemble(highs []time.Duration) RawSample {
	bits := highs[len(highs)-bitsPerSample:]

	var sample RawSample
	for i, w := range bits {
		sample[i/8] <<= 1
		if w > bitThreshold {
			sample[i/8] |= 1
		}
	}
	return sample
}
