// Package sensor reads temperature and relative humidity.
// Failed reads are reported both as error and as NaN values in Reading,
// so callers that only look at values still see the failure.
package sensor

import (
	"fmt"
	"math"

	"github.com/juju/errors"
)

var (
	ErrChecksum  = errors.New("checksum mismatch")
	ErrShortRead = errors.New("short read")
	ErrTimeout   = errors.New("sensor response timeout")
)

// Reading is one poll result, temperature in Celsius, humidity in percent.
type Reading struct {
	Temperature float64
	Humidity    float64
}

func Invalid() Reading { return Reading{Temperature: math.NaN(), Humidity: math.NaN()} }

// Valid is false when either value is NaN.
func (r Reading) Valid() bool {
	return !math.IsNaN(r.Temperature) && !math.IsNaN(r.Humidity)
}

func (r Reading) String() string {
	return fmt.Sprintf("temperature=%.1f humidity=%.1f", r.Temperature, r.Humidity)
}

type Sensor interface {
	Read() (Reading, error)
	Close() error
}

// Broken replaces a sensor which could not be opened.
// Every read fails with the open error, process keeps running.
type Broken struct{ Err error }

func (b Broken) Read() (Reading, error) { return Invalid(), b.Err }
func (Broken) Close() error             { return nil }
