// Package uart opens serial port as plain line sink for debug channel.
package uart

import (
	"io"
	"os"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

var bauds = map[int]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

func BaudSupported(baud int) bool {
	_, ok := bauds[baud]
	return ok
}

// Open configures raw 8N1 output at baud and returns writer.
func Open(path string, baud int) (io.WriteCloser, error) {
	speed, ok := bauds[baud]
	if !ok {
		return nil, errors.NotSupportedf("uart baud=%d", baud)
	}
	f, err := os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY, 0600)
	if err != nil {
		return nil, errors.Annotatef(err, "uart open %s", path)
	}
	if err = setRaw(int(f.Fd()), speed); err != nil {
		f.Close()
		return nil, errors.Annotatef(err, "uart termios %s", path)
	}
	return f, nil
}

func setRaw(fd int, speed uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag |= unix.OPOST | unix.ONLCR
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | speed
	t.Ispeed = speed
	t.Ospeed = speed
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}
