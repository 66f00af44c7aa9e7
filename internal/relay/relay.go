// Package relay drives the compressor relay output.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package relay

// Driver sets the relay output state.
type Driver interface {
	// Set energizes (true) or de-energizes (false) the relay.
	Set(on bool) error

	// Close de-energizes the relay and releases the line.
	Close() error
}
