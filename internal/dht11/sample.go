// Package dht11 reads the DHT11 temperature/humidity sensor over its
// single-wire protocol.
// The real implementation measures pulse widths from kernel-timestamped
// GPIO line events, so bit decoding does not depend on userspace scheduling.
// The fake implementation allows testing without hardware.
package dht11

import "errors"

// Errors returned by Acquire and Decode.
var (
	// ErrNoResponse means the sensor did not complete an exchange before the
	// acquisition deadline (absent, disconnected, or electrically dead).
	ErrNoResponse = errors.New("dht11: sensor not responding")

	// ErrChecksum means the exchange completed but the checksum lane does not
	// match the data lanes. The sample must be discarded.
	ErrChecksum = errors.New("dht11: checksum mismatch")
)

// RawSample is the five byte lanes of one protocol exchange:
// integral humidity, fractional humidity, integral temperature,
// fractional temperature, checksum.
type RawSample [5]byte

// Checksum returns the sum of lanes 0..3 modulo 256.
func (s RawSample) Checksum() byte {
	return s[0] + s[1] + s[2] + s[3]
}

// Valid reports whether the checksum lane matches the data lanes.
func (s RawSample) Valid() bool {
	return s[4] == s.Checksum()
}

// Reading is one decoded sensor sample. Degrees Celsius and percent
// relative humidity, at the DHT11's integer resolution.
type Reading struct {
	Temperature int8
	Humidity    int8
}

// Decode validates the checksum and extracts a Reading from the raw lanes.
// The fractional lanes are unused at the DHT11's 8-bit resolution.
// On ErrChecksum the caller should retain its previous Reading.
func Decode(s RawSample) (Reading, error) {
	if !s.Valid() {
		return Reading{}, ErrChecksum
	}
	return Reading{
		Temperature: int8(s[2]),
		Humidity:    int8(s[0]),
	}, nil
}
