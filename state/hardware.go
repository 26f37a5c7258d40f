package state

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/temoto/envdisplay/display"
	i2c_bus "github.com/temoto/envdisplay/hardware/i2c"
	"github.com/temoto/envdisplay/hardware/lcd"
	"github.com/temoto/envdisplay/helpers"
	"github.com/temoto/envdisplay/log2"
	"github.com/temoto/envdisplay/sensor"
	"periph.io/x/periph/conn/i2c"
)

// Hardware opens devices lazily from Config, each at most once.
type Hardware struct {
	Config *Config
	Log    *log2.Log

	bus struct {
		once
		b i2c.BusCloser
	}
	surface struct {
		once
		s display.Surface
	}
	sensor struct {
		once
		s sensor.Sensor
	}
}

func NewHardware(c *Config, log *log2.Log) *Hardware {
	return &Hardware{Config: c, Log: log}
}

// Bus initializes shared I2C bus. Error is returned for logging,
// display init failure is the visible consequence.
func (h *Hardware) Bus() (i2c.BusCloser, error) {
	x := &h.bus
	_ = x.do(func() error {
		x.b, x.err = i2c_bus.Open(h.Config.I2C.Bus, h.Log)
		return x.err
	})
	return x.b, x.err
}

// Surface returns nil,nil for display.driver=none.
func (h *Hardware) Surface() (display.Surface, error) {
	x := &h.surface
	_ = x.do(func() error {
		cfg := &h.Config.Display
		switch cfg.Driver {
		case DisplaySSD1306:
			bus, err := h.Bus()
			if err != nil {
				h.Log.Errorf("i2c: %v", err)
			}
			x.s = display.NewOLED(bus, display.OLEDOptions{
				Width:   cfg.Width,
				Height:  cfg.Height,
				Rotated: cfg.Rotated,
				Scale:   cfg.TextScale,
			})
			return nil

		case DisplayHD44780:
			x.s = lcd.NewTextSurface(lcd.TextConfig{
				PinChip:  cfg.HD44780.PinChip,
				Pinmap:   cfg.HD44780.Pinmap,
				Page1:    cfg.HD44780.Page1,
				Width:    cfg.HD44780.Width,
				Codepage: cfg.HD44780.Codepage,
			})
			return nil

		case DisplayMock:
			x.s = display.NewMock(image.Pt(cfg.Width, cfg.Height), cfg.TextScale)
			return nil

		case DisplayNone:
			return nil

		default:
			return errors.NotValidf("config: display.driver=%s", cfg.Driver)
		}
	})
	return x.s, x.err
}

// Sensor never returns nil. Open failure yields sensor.Broken,
// so every poll reports read failure and process keeps running.
func (h *Hardware) Sensor() sensor.Sensor {
	x := &h.sensor
	_ = x.do(func() error {
		cfg := &h.Config.Sensor
		if cfg.Driver == SensorSim {
			x.s = sensor.NewSim(sensor.Reading{
				Temperature: cfg.Sim.Temperature,
				Humidity:    cfg.Sim.Humidity,
			}, cfg.Sim.FailEvery)
			return nil
		}
		kind, err := sensor.ParseKind(cfg.Driver)
		if err == nil {
			var d *sensor.DHT
			if d, err = sensor.OpenDHT(cfg.PinChip, cfg.Pin, kind, h.Log); err == nil {
				x.s = d
				return nil
			}
		}
		h.Log.Errorf("sensor: %v", errors.ErrorStack(err))
		x.s = sensor.Broken{Err: err}
		return err
	})
	return x.s
}

// Close releases bus. Surface and sensor belong to monitor and are closed there.
func (h *Hardware) Close() error {
	errs := make([]error, 0, 1)
	if h.bus.done() && h.bus.b != nil {
		errs = append(errs, h.bus.b.Close())
	}
	return helpers.FoldErrors(errs)
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
