package sensor

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pulseZero = 27 * time.Microsecond
	pulseOne  = 70 * time.Microsecond
)

func framePulses(data [5]byte) []time.Duration {
	pulses := make([]time.Duration, 0, frameBits)
	for _, b := range data {
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) != 0 {
				pulses = append(pulses, pulseOne)
			} else {
				pulses = append(pulses, pulseZero)
			}
		}
	}
	return pulses
}

// frameEdges simulates line as seen after host released it:
// response low 80us, high 80us, then 50us low + data high per bit, final release.
func frameEdges(data [5]byte, preamble bool) []Edge {
	edges := []Edge{}
	at := time.Duration(0)
	if preamble {
		edges = append(edges, Edge{At: at, Rising: false})
		at += 80 * time.Microsecond
		edges = append(edges, Edge{At: at, Rising: true})
		at += 80 * time.Microsecond
		edges = append(edges, Edge{At: at, Rising: false})
	}
	for _, p := range framePulses(data) {
		at += 50 * time.Microsecond
		edges = append(edges, Edge{At: at, Rising: true})
		at += p
		edges = append(edges, Edge{At: at, Rising: false})
	}
	at += 50 * time.Microsecond
	edges = append(edges, Edge{At: at, Rising: true})
	return edges
}

func withSum(b0, b1, b2, b3 byte) [5]byte {
	return [5]byte{b0, b1, b2, b3, b0 + b1 + b2 + b3}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	type Case struct {
		name      string
		pulses    []time.Duration
		expect    [5]byte
		expectErr error
	}
	frame := withSum(60, 2, 23, 4)
	corrupt := frame
	corrupt[4]++
	cases := []Case{
		{"exact", framePulses(frame), frame, nil},
		{"with-preamble", HighPulses(frameEdges(frame, true)), frame, nil},
		{"lost-preamble", HighPulses(frameEdges(frame, false)), frame, nil},
		{"checksum", framePulses(corrupt), corrupt, ErrChecksum},
		{"short", framePulses(frame)[:39], [5]byte{}, ErrShortRead},
		{"empty", nil, [5]byte{}, ErrShortRead},
		{"overflow-sum", framePulses(withSum(200, 100, 0, 0)), withSum(200, 100, 0, 0), nil},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			data, err := Decode(c.pulses)
			if c.expectErr != nil {
				require.Error(t, err)
				assert.Equal(t, c.expectErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, data)
		})
	}
}

func TestHighPulses(t *testing.T) {
	t.Parallel()

	edges := []Edge{
		{At: 0, Rising: false}, // falling without rising is ignored
		{At: 10, Rising: true},
		{At: 40, Rising: false},
		{At: 90, Rising: true},
		{At: 160, Rising: false},
		{At: 200, Rising: true}, // unfinished
	}
	assert.Equal(t, []time.Duration{30, 70}, HighPulses(edges))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		kind   Kind
		data   [5]byte
		expect Reading
	}
	cases := []Case{
		{"dht11", DHT11, withSum(60, 2, 23, 4), Reading{Temperature: 23.4, Humidity: 60.2}},
		{"dht11-negative", DHT11, withSum(30, 0, 5, 0x83), Reading{Temperature: -5.3, Humidity: 30}},
		{"dht22", DHT22, withSum(0x02, 0x5a, 0x00, 0xea), Reading{Temperature: 23.4, Humidity: 60.2}},
		{"dht22-negative", DHT22, withSum(0x01, 0xf4, 0x80, 0x65), Reading{Temperature: -10.1, Humidity: 50}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := Convert(c.kind, c.data)
			assert.InDelta(t, c.expect.Temperature, r.Temperature, 0.001)
			assert.InDelta(t, c.expect.Humidity, r.Humidity, 0.001)
			assert.True(t, r.Valid())
		})
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("DHT22")
	require.NoError(t, err)
	assert.Equal(t, DHT22, k)
	k, err = ParseKind("dht11")
	require.NoError(t, err)
	assert.Equal(t, "dht11", k.String())
	_, err = ParseKind("bme280")
	assert.True(t, errors.IsNotValid(err))
}
