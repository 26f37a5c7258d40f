package sensor

import (
	"time"

	"github.com/juju/errors"
)

const (
	frameBits = 40
	// zero bit high pulse is 26-28us, one is 70us
	bitThreshold = 50 * time.Microsecond
)

type Edge struct {
	At     time.Duration
	Rising bool
}

// HighPulses returns widths of every complete high level (rising then falling edge).
func HighPulses(edges []Edge) []time.Duration {
	pulses := make([]time.Duration, 0, frameBits+2)
	var rise time.Duration
	high := false
	for _, e := range edges {
		switch {
		case e.Rising:
			rise, high = e.At, true
		case high:
			pulses = append(pulses, e.At-rise)
			high = false
		}
	}
	return pulses
}

// Decode takes high pulse widths and assembles last 40 bits into frame.
// Leading pulses (response preamble) may be present or lost, they're ignored.
func Decode(pulses []time.Duration) ([5]byte, error) {
	var data [5]byte
	if len(pulses) < frameBits {
		return data, errors.Annotatef(ErrShortRead, "pulses=%d", len(pulses))
	}
	pulses = pulses[len(pulses)-frameBits:]
	for i, p := range pulses {
		data[i/8] <<= 1
		if p > bitThreshold {
			data[i/8] |= 1
		}
	}
	if sum := data[0] + data[1] + data[2] + data[3]; sum != data[4] {
		return data, errors.Annotatef(ErrChecksum, "frame=%02x sum=%02x", data, sum)
	}
	return data, nil
}

func Convert(kind Kind, data [5]byte) Reading {
	var r Reading
	switch kind {
	case DHT22:
		r.Humidity = float64(uint16(data[0])<<8|uint16(data[1])) / 10
		r.Temperature = float64(uint16(data[2]&0x7f)<<8|uint16(data[3])) / 10
		if data[2]&0x80 != 0 {
			r.Temperature = -r.Temperature
		}
	default:
		r.Humidity = float64(data[0]) + float64(data[1])/10
		r.Temperature = float64(data[2]) + float64(data[3]&0x7f)/10
		if data[3]&0x80 != 0 {
			r.Temperature = -r.Temperature
		}
	}
	return r
}
