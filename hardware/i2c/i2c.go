// Package i2c opens the shared two-wire bus used by display.
//
// "/dev/i2c-N" paths are driven directly through i2c-dev I2C_RDWR ioctl,
// other names are resolved by periph host drivers (e.g. "1", "I2C1").
// Either way result is periph i2c.BusCloser so periph devices can use it.
package i2c

// Thanks to
// https://github.com/kidoman/embd and https://bitbucket.org/gmcbay/i2c

import (
	"os"
	"strings"
	"sync"
	"unsafe"

	"github.com/juju/errors"
	"github.com/temoto/envdisplay/log2"
	"golang.org/x/sys/unix"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

const (
	// as defined in /usr/include/linux/i2c-dev.h
	I2C_RDWR = 0x0707 /* Combined R/W transfer (one STOP only) */

	// i2c_msg flags
	// as defined in /usr/include/linux/i2c.h
	I2C_M_RD = 0x0001 /* read data, from slave to master */
)

type i2c_msg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type i2c_rdwr_ioctl_data struct {
	msgs uintptr
	nmsg uint32
}

// Open is called once at startup, before display init.
func Open(name string, log *log2.Log) (i2c.BusCloser, error) {
	if strings.HasPrefix(name, "/dev/") {
		b := &devBus{path: name}
		if err := b.open(); err != nil {
			return nil, errors.Annotatef(err, "i2c open %s", name)
		}
		log.Debugf("i2c: opened %s", name)
		return b, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph/init")
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Annotatef(err, "i2creg open %s", name)
	}
	log.Debugf("i2c: opened %s via periph", bus.String())
	return bus, nil
}

type devBus struct {
	path string
	file *os.File
	lk   sync.Mutex
}

var _ i2c.BusCloser = &devBus{}

func (b *devBus) open() error {
	f, err := os.OpenFile(b.path, os.O_RDWR, os.ModeExclusive)
	if err != nil {
		return err
	}
	b.file = f
	return nil
}

func (b *devBus) String() string { return b.path }

// i2c-dev has no portable speed control, it's set by device tree
func (b *devBus) SetSpeed(f physic.Frequency) error {
	return errors.NotSupportedf("i2c-dev speed=%s", f.String())
}

func (b *devBus) Tx(addr uint16, w, r []byte) error {
	nmsg := uint32(0)
	msgs := [2]i2c_msg{}
	if len(w) != 0 {
		msgs[nmsg] = i2c_msg{
			addr: addr, flags: 0,
			buf: uintptr(unsafe.Pointer(&w[0])), len: uint16(len(w)),
		}
		nmsg++
	}
	if len(r) != 0 {
		msgs[nmsg] = i2c_msg{
			addr: addr, flags: I2C_M_RD,
			buf: uintptr(unsafe.Pointer(&r[0])), len: uint16(len(r)),
		}
		nmsg++
	}
	if nmsg == 0 {
		return errors.Errorf("i2c Tx addr=0x%02x both w=r=empty nothing to do", addr)
	}

	b.lk.Lock()
	defer b.lk.Unlock()
	if b.file == nil {
		return errors.Errorf("i2c %s is closed", b.path)
	}

	rdwr_data := i2c_rdwr_ioctl_data{
		msgs: uintptr(unsafe.Pointer(&msgs[0])),
		nmsg: nmsg,
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL,
		b.file.Fd(), uintptr(I2C_RDWR), uintptr(unsafe.Pointer(&rdwr_data)))
	if errno != 0 {
		return errors.Annotatef(errno, "i2c Tx addr=0x%02x", addr)
	}
	return nil
}

func (b *devBus) Close() error {
	b.lk.Lock()
	defer b.lk.Unlock()

	if b.file == nil {
		return nil
	}
	err := b.file.Close()
	b.file = nil
	return err
}
