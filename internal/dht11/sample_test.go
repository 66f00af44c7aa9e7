package dht11

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	// Lanes [60,0,25,0,85]: checksum 60+0+25+0 = 85.
	sample := RawSample{60, 0, 25, 0, 85}

	r, err := Decode(sample)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Temperature != 25 {
		t.Errorf("Temperature: got %d, want 25", r.Temperature)
	}
	if r.Humidity != 60 {
		t.Errorf("Humidity: got %d, want 60", r.Humidity)
	}
}

func TestDecodeChecksumMismatch(t *testing.T) {
	tests := []struct {
		name   string
		sample RawSample
	}{
		{"corrupted checksum lane", RawSample{60, 0, 25, 0, 86}},
		{"corrupted data lane", RawSample{61, 0, 25, 0, 85}},
		{"all lanes high", RawSample{255, 255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.sample)
			if !errors.Is(err, ErrChecksum) {
				t.Errorf("Decode(%v): got %v, want ErrChecksum", tt.sample, err)
			}
		})
	}
}

func TestDecodeZeroSample(t *testing.T) {
	// All-zero lanes carry a valid checksum; a dead sensor must be caught
	// by the driver (ErrNoResponse), not the codec.
	r, err := Decode(RawSample{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Temperature != 0 || r.Humidity != 0 {
		t.Errorf("got %+v, want zero reading", r)
	}
}

func TestChecksumWraps(t *testing.T) {
	// 200+200+100+100 = 600 = 88 mod 256.
	sample := RawSample{200, 200, 100, 100, 88}
	if got := sample.Checksum(); got != 88 {
		t.Errorf("Checksum: got %d, want 88", got)
	}
	if !sample.Valid() {
		t.Error("expected sample to be valid")
	}
}

func TestLanesFor(t *testing.T) {
	s := LanesFor(25, 60)
	if !s.Valid() {
		t.Fatal("LanesFor produced invalid checksum")
	}
	r, err := Decode(s)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Temperature != 25 || r.Humidity != 60 {
		t.Errorf("got %+v, want {25 60}", r)
	}
}
