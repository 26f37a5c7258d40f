package state

import (
	"path/filepath"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/envdisplay/hardware/lcd"
	"github.com/temoto/envdisplay/hardware/uart"
	"github.com/temoto/envdisplay/helpers"
	"github.com/temoto/envdisplay/log2"
	"github.com/temoto/envdisplay/sensor"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	LogLevel string `hcl:"log_level"`

	Debug struct {
		SerialDevice string `hcl:"serial_device"`
		SerialBaud   int    `hcl:"serial_baud"`
	} `hcl:"debug"`

	I2C struct {
		Bus string `hcl:"bus"`
	} `hcl:"i2c"`

	Display struct {
		Driver    string   `hcl:"driver"`
		Width     int      `hcl:"width"`
		Height    int      `hcl:"height"`
		TextScale int      `hcl:"text_scale"`
		Rotated   bool     `hcl:"rotated"`
		HD44780   struct { //nolint:maligned
			PinChip  string     `hcl:"pin_chip"`
			Pinmap   lcd.PinMap `hcl:"pinmap"`
			Page1    bool       `hcl:"page1"`
			Width    int        `hcl:"width"`
			Codepage string     `hcl:"codepage"`
		} `hcl:"hd44780"`
	} `hcl:"display"`

	Sensor struct {
		Driver  string `hcl:"driver"`
		PinChip string `hcl:"pin_chip"`
		Pin     string `hcl:"pin"`
		Sim     struct {
			Temperature float64 `hcl:"temperature"`
			Humidity    float64 `hcl:"humidity"`
			FailEvery   int     `hcl:"fail_every"`
		} `hcl:"sim"`
	} `hcl:"sensor"`
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

const (
	DisplaySSD1306 = "ssd1306"
	DisplayHD44780 = "hd44780"
	DisplayMock    = "mock"
	DisplayNone    = "none"
	SensorSim      = "sim"
)

// DefaultConfig matches the reference board: OLED 128x64 on i2c-1, DHT11 on line 5.
func DefaultConfig() *Config {
	c := &Config{includeSeen: make(map[string]struct{})}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Debug.SerialBaud == 0 {
		c.Debug.SerialBaud = 115200
	}
	if c.I2C.Bus == "" {
		c.I2C.Bus = "/dev/i2c-1"
	}
	d := &c.Display
	if d.Driver == "" {
		d.Driver = DisplaySSD1306
	}
	if d.Width == 0 {
		d.Width = 128
	}
	if d.Height == 0 {
		d.Height = 64
	}
	if d.TextScale == 0 {
		d.TextScale = 2
	}
	if d.HD44780.PinChip == "" {
		d.HD44780.PinChip = "/dev/gpiochip0"
	}
	if d.HD44780.Width == 0 {
		d.HD44780.Width = 16
	}
	s := &c.Sensor
	if s.Driver == "" {
		s.Driver = sensor.DHT11.String()
	}
	if s.PinChip == "" {
		s.PinChip = "/dev/gpiochip0"
	}
	if s.Pin == "" {
		s.Pin = "5"
	}
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if _, err := log2.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, errors.Annotate(err, "config: log_level"))
	}
	if c.Debug.SerialDevice != "" && !uart.BaudSupported(c.Debug.SerialBaud) {
		errs = append(errs, errors.NotValidf("config: debug.serial_baud=%d", c.Debug.SerialBaud))
	}
	switch c.Display.Driver {
	case DisplaySSD1306, DisplayHD44780, DisplayMock, DisplayNone:
	default:
		errs = append(errs, errors.NotValidf(`config: display.driver="%s" (ssd1306, hd44780, mock, none)`, c.Display.Driver))
	}
	if c.Display.TextScale < 1 || c.Display.TextScale > 2 {
		errs = append(errs, errors.NotValidf("config: display.text_scale=%d (1 or 2)", c.Display.TextScale))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, errors.NotValidf("config: display size=%dx%d", c.Display.Width, c.Display.Height))
	}
	if c.Sensor.Driver != SensorSim {
		if _, err := sensor.ParseKind(c.Sensor.Driver); err != nil {
			errs = append(errs, errors.Annotate(err, "config: sensor.driver valid: dht11, dht22, sim"))
		}
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig reads names in order, later values overwrite earlier,
// then fills defaults and validates.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if err := helpers.FoldErrors(errs); err != nil {
		return c, err
	}
	c.applyDefaults()
	return c, c.Validate()
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
