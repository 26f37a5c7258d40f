// Package lcd drives HD44780 compatible character LCD in 4-bit mode
// over GPIO character device, as alternative envdisplay surface.
package lcd

import (
	"strconv"
	"time"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
)

type Command byte

const (
	CommandClear   Command = 0x01
	CommandReturn  Command = 0x02
	CommandControl Command = 0x08
	CommandAddress Command = 0x80
)

type Control byte

const (
	ControlOn         Control = 0x04
	ControlUnderscore Control = 0x02
	ControlBlink      Control = 0x01
)
const ddramWidth = 0x40

type LCD struct {
	control Control
	pinChip gpio.Chiper
	pins    gpio.Lineser
	pin_rs  gpio.LineSetFunc // command/data, aliases: A0, RS
	pin_rw  gpio.LineSetFunc // read/write
	pin_e   gpio.LineSetFunc // enable
	pin_d4  gpio.LineSetFunc
	pin_d5  gpio.LineSetFunc
	pin_d6  gpio.LineSetFunc
	pin_d7  gpio.LineSetFunc
}

type PinMap struct {
	RS string `hcl:"rs"`
	RW string `hcl:"rw"`
	E  string `hcl:"e"`
	D4 string `hcl:"d4"`
	D5 string `hcl:"d5"`
	D6 string `hcl:"d6"`
	D7 string `hcl:"d7"`
}

func (p PinMap) lines() ([]uint32, error) {
	names := []string{p.RS, p.RW, p.E, p.D4, p.D5, p.D6, p.D7}
	tags := []string{"rs", "rw", "e", "d4", "d5", "d6", "d7"}
	result := make([]uint32, len(names))
	for i, s := range names {
		x, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, errors.Annotatef(err, "lcd pinmap %s='%s'", tags[i], s)
		}
		result[i] = uint32(x)
	}
	return result, nil
}

func (self *LCD) Init(chipName string, pinmap PinMap, page1 bool) error {
	lines, err := pinmap.lines()
	if err != nil {
		return err
	}
	chip, err := gpio.Open(chipName, "lcd")
	if err != nil {
		return errors.Annotatef(err, "lcd open chip=%s", chipName)
	}
	if err = self.initChip(chip, lines, page1); err != nil {
		chip.Close()
		return err
	}
	return nil
}

func (self *LCD) initChip(chip gpio.Chiper, lines []uint32, page1 bool) error {
	var err error
	self.pinChip = chip
	self.pins, err = chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "lcd", lines...)
	if err != nil {
		return errors.Annotate(err, "lcd open lines")
	}
	self.pin_rs = self.pins.SetFunc(lines[0])
	self.pin_rw = self.pins.SetFunc(lines[1])
	self.pin_e = self.pins.SetFunc(lines[2])
	self.pin_d4 = self.pins.SetFunc(lines[3])
	self.pin_d5 = self.pins.SetFunc(lines[4])
	self.pin_d6 = self.pins.SetFunc(lines[5])
	self.pin_d7 = self.pins.SetFunc(lines[6])

	self.init4(page1)
	return nil
}

func (self *LCD) Close() error {
	var err error
	if self.pins != nil {
		err = self.pins.Close()
	}
	if self.pinChip != nil {
		if e := self.pinChip.Close(); err == nil {
			err = e
		}
	}
	return err
}

func (self *LCD) setAllPins(b byte) {
	self.pin_rs(b)
	self.pin_rw(b)
	self.pin_e(b)
	self.pin_d4(b)
	self.pin_d5(b)
	self.pin_d6(b)
	self.pin_d7(b)
	self.pins.Flush() //nolint:errcheck
}

func (self *LCD) blinkE() {
	self.pin_e(1)
	self.pins.Flush() //nolint:errcheck
	time.Sleep(1 * time.Microsecond)
	self.pin_e(0)
	self.pins.Flush() //nolint:errcheck
	time.Sleep(1 * time.Microsecond)
}

func (self *LCD) send4(rs, d4, d5, d6, d7 byte) {
	self.pin_rs(rs)
	self.pin_d4(d4)
	self.pin_d5(d5)
	self.pin_d6(d6)
	self.pin_d7(d7)
	self.blinkE()
}

func (self *LCD) init4(page1 bool) {
	time.Sleep(20 * time.Millisecond)

	// special sequence
	self.Command(0x33)
	self.Command(0x32)

	self.SetFunction(false, page1)
	self.SetControl(0) // off
	self.SetControl(ControlOn)
	self.Clear()
	self.SetEntryMode(true, false)
}

func bb(b, bit byte) byte {
	if b&(1<<bit) == 0 {
		return 0
	}
	return 1
}

func (self *LCD) Command(c Command) {
	b := byte(c)
	self.send4(0, bb(b, 4), bb(b, 5), bb(b, 6), bb(b, 7))
	self.send4(0, bb(b, 0), bb(b, 1), bb(b, 2), bb(b, 3))
	time.Sleep(40 * time.Microsecond)
	self.setAllPins(0)
}

func (self *LCD) Data(b byte) {
	self.send4(1, bb(b, 4), bb(b, 5), bb(b, 6), bb(b, 7))
	self.send4(1, bb(b, 0), bb(b, 1), bb(b, 2), bb(b, 3))
	time.Sleep(40 * time.Microsecond)
	self.setAllPins(0)
}

func (self *LCD) Write(bs []byte) {
	for _, b := range bs {
		self.Data(b)
	}
}

func (self *LCD) Clear() {
	self.Command(CommandClear)
	// clear takes 1.52ms, busy flag is not readable with rw tied low
	time.Sleep(2 * time.Millisecond)
}

func (self *LCD) SetEntryMode(right, shift bool) {
	var cmd Command = 0x04
	if right {
		cmd |= 0x02
	}
	if shift {
		cmd |= 0x01
	}
	self.Command(cmd)
}

func (self *LCD) SetControl(new Control) Control {
	old := self.control
	self.control = new
	self.Command(CommandControl | Command(new))
	return old
}

func (self *LCD) SetFunction(bits8, page1 bool) {
	var cmd Command = 0x28
	if bits8 {
		cmd |= 0x10
	}
	if page1 {
		cmd |= 0x02
	}
	self.Command(cmd)
}

func (self *LCD) CursorYX(row uint8, column uint8) bool {
	if !(row > 0 && row <= 2) {
		return false
	}
	if !(column > 0 && column <= MaxWidth) {
		return false
	}
	addr := (row-1)*ddramWidth + (column - 1)
	self.Command(CommandAddress | Command(addr))
	return true
}
