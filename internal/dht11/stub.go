//go:build !linux

package dht11

import (
	"context"
	"errors"
)

// RealSensor is not available on non-Linux platforms.
type RealSensor struct{}

// NewRealSensor returns an error on non-Linux platforms.
func NewRealSensor(chipName string, pin int) (*RealSensor, error) {
	return nil, errors.New("dht11: not supported on this platform (requires Linux)")
}

// Acquire is not implemented on non-Linux platforms.
func (s *RealSensor) Acquire(ctx context.Context) (RawSample, error) {
	return RawSample{}, errors.New("dht11: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *RealSensor) Close() error {
	return nil
}
