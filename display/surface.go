// Package display renders envdisplay screens on a small monochrome surface.
//
// Surface is the narrow driver contract: off-screen buffer, text lines, Flush.
// Screen sits on top and enforces readiness: once Initialize failed,
// the surface is never drawn to again.
package display

import (
	"fmt"
	"math"

	"github.com/juju/errors"
)

// Bus address of SSD1306 with SA0 low, the only one supported.
const Address = 0x3c

const (
	MsgLoading = "Loading..."
	MsgReady   = "Ready"
	MsgError   = "DHT error"
)

var ErrDisabled = errors.New("display disabled")

type Surface interface {
	Init() error
	Clear()
	DrawText(line int, s string)
	Flush() error
	Close() error
}

// smallTexter is implemented by surfaces with scalable text.
type smallTexter interface {
	DrawSmallText(line int, s string)
}

// FormatReading returns screen lines for valid values, ok=false if any is NaN.
func FormatReading(temperature, humidity float64) (line1, line2 string, ok bool) {
	if math.IsNaN(temperature) || math.IsNaN(humidity) {
		return "", "", false
	}
	return fmt.Sprintf("T: %.1fC", temperature), fmt.Sprintf("H: %.1f%%", humidity), true
}

// FormatLog is the debug channel line for a valid reading.
func FormatLog(temperature, humidity float64) string {
	return fmt.Sprintf("T: %.1f C, H: %.1f %%", temperature, humidity)
}
