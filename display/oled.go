package display

import (
	"image"

	"github.com/juju/errors"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/devices/ssd1306"
)

type OLEDOptions struct {
	Width   int
	Height  int
	Rotated bool
	Scale   int
}

// NewOLED returns SSD1306 surface on bus. Nothing is sent to the bus until Init.
// bus may be nil when bus init failed, then Init fails.
func NewOLED(bus i2c.Bus, opts OLEDOptions) *Pixel {
	size := image.Point{X: opts.Width, Y: opts.Height}
	return newPixel(size, opts.Scale, func() (Drawer, error) {
		if bus == nil {
			return nil, errors.New("i2c bus not available")
		}
		dev, err := ssd1306.NewI2C(bus, &ssd1306.Opts{
			W:       opts.Width,
			H:       opts.Height,
			Rotated: opts.Rotated,
		})
		if err != nil {
			return nil, errors.Annotatef(err, "ssd1306 bus=%s addr=0x%02x", bus.String(), Address)
		}
		return dev, nil
	})
}
