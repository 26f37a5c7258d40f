package sensor

import (
	"strings"
	"time"

	"github.com/juju/errors"
)

type Kind uint8

const (
	DHT11 Kind = iota + 1
	DHT22
)

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "dht11":
		return DHT11, nil
	case "dht22", "am2302":
		return DHT22, nil
	}
	return 0, errors.NotValidf("sensor kind=%s", s)
}

func (k Kind) String() string {
	switch k {
	case DHT11:
		return "dht11"
	case DHT22:
		return "dht22"
	}
	return "unknown"
}

// host holds data line low this long to request measurement
func (k Kind) startLow() time.Duration {
	if k == DHT22 {
		return 1100 * time.Microsecond
	}
	return 18 * time.Millisecond
}

// minimal time between measurements according to datasheets
func (k Kind) minInterval() time.Duration {
	if k == DHT22 {
		return 2 * time.Second
	}
	return 1 * time.Second
}
