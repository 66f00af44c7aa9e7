//go:build linux

package dht11

import (
	"context"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealSensor drives a DHT11 on a GPIO line using the Linux GPIO character
// device. Edge timestamps are taken by the kernel at interrupt time, which
// keeps the 26/70 us pulse-width discrimination independent of how late this
// process is scheduled.
type RealSensor struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	edges chan edge
}

// edge is one line transition, timestamped by the kernel.
type edge struct {
	rising bool
	at     time.Duration
}

// NewRealSensor requests the sensor data line on the given chip.
// The line idles as input with pull-up, so a disconnected sensor reads as a
// stable high level rather than floating.
func NewRealSensor(chipName string, pin int) (*RealSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &RealSensor{
		chip: chip,
		// Deep enough for a full exchange (2 edges per bit plus the
		// response preamble) so the kernel never has to drop events.
		edges: make(chan edge, 128),
	}

	line, err := chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handleEvent),
		gpiocdev.WithConsumer("aircond-dht11"),
	)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", pin, err)
	}
	s.line = line

	return s, nil
}

func (s *RealSensor) handleEvent(ev gpiocdev.LineEvent) {
	e := edge{
		rising: ev.Type == gpiocdev.LineEventRisingEdge,
		at:     ev.Timestamp,
	}
	select {
	case s.edges <- e:
	default:
		// Overflow means the exchange is already unreadable; Acquire
		// will come up short and report ErrNoResponse.
	}
}

// Acquire performs one exchange: start condition, then pulse-width decode of
// the sensor's 40-bit response into five byte lanes.
func (s *RealSensor) Acquire(ctx context.Context) (RawSample, error) {
	// Discard edges left over from a previous (possibly aborted) exchange.
	s.drain()

	// Start condition: hold the line low, then release it back to the
	// pulled-up idle level. The sensor answers with an 80 us presence
	// pulse followed by the data bits.
	if err := s.line.Reconfigure(gpiocdev.AsOutput(0)); err != nil {
		return RawSample{}, fmt.Errorf("start condition: %w", err)
	}
	time.Sleep(startLowTime)
	if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithBothEdges); err != nil {
		return RawSample{}, fmt.Errorf("release line: %w", err)
	}

	highs, err := s.collect(ctx)
	if err != nil {
		return RawSample{}, err
	}

	return assemble(highs), nil
}

// collect gathers high pulse widths until the line goes quiet after a full
// exchange, or the deadline passes. How many pulses precede the 40 data
// bits depends on when event reporting re-arms relative to the pull-up:
// the host-release gap and the presence pulse may each show up or not, so
// the exchange ends on silence rather than on a pulse count. assemble
// keeps the last 40 widths.
func (s *RealSensor) collect(ctx context.Context) ([]time.Duration, error) {
	deadline := time.NewTimer(exchangeTimeout)
	defer deadline.Stop()

	// Armed only once all 40 bits are in.
	quiet := time.NewTimer(exchangeTimeout)
	if !quiet.Stop() {
		<-quiet.C
	}
	defer quiet.Stop()

	var (
		highs    []time.Duration
		lastRise time.Duration
		haveRise bool
	)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-deadline.C:
			if len(highs) >= bitsPerSample {
				return highs, nil
			}
			return nil, ErrNoResponse

		case <-quiet.C:
			return highs, nil

		case e := <-s.edges:
			if e.rising {
				lastRise = e.at
				haveRise = true
				continue
			}
			if !haveRise {
				continue
			}
			highs = append(highs, e.at-lastRise)
			haveRise = false
			if len(highs) >= bitsPerSample {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(quietWindow)
			}
		}
	}
}

func (s *RealSensor) drain() {
	for {
		select {
		case <-s.edges:
		default:
			return
		}
	}
}

// Close releases the data line, leaving it as a pulled-up input.
func (s *RealSensor) Close() error {
	var errs []error
	if s.line != nil {
		if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullUp); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure sensor line: %w", err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor line: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
