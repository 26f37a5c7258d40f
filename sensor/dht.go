package sensor

import (
	"strconv"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/envdisplay/log2"
	gpio "github.com/temoto/gpio-cdev-go"
)

const (
	consumer = "envdisplay-dht"
	// 40 bits + preamble is 2*(40+2) edges, leave some room for glitches
	maxEdges = 100
	// whole frame takes ~4.5ms after start signal
	frameTimeout = 10 * time.Millisecond
	edgeTimeout  = 2 * time.Millisecond
)

// DHT talks to DHT11/DHT22 over single data line of GPIO character device.
// Edge timestamps come from kernel, so userspace scheduling jitter
// doesn't corrupt bit timing.
type DHT struct {
	Log  *log2.Log
	kind Kind
	chip gpio.Chiper
	line uint32
	own  bool // chip opened by us, close with sensor

	mu      sync.Mutex
	now     func() time.Time
	last    time.Time
	lastR   Reading
	lastErr error
}

func NewDHT(chip gpio.Chiper, line uint32, kind Kind, log *log2.Log) *DHT {
	return &DHT{
		Log:  log,
		kind: kind,
		chip: chip,
		line: line,
		now:  time.Now,
	}
}

func OpenDHT(chipPath, pin string, kind Kind, log *log2.Log) (*DHT, error) {
	line, err := strconv.ParseUint(pin, 10, 32)
	if err != nil {
		return nil, errors.Annotate(err, "dht pin must be line number")
	}
	chip, err := gpio.Open(chipPath, consumer)
	if err != nil {
		return nil, errors.Annotatef(err, "dht open chip=%s", chipPath)
	}
	d := NewDHT(chip, uint32(line), kind, log)
	d.own = true
	return d, nil
}

func (d *DHT) Kind() Kind { return d.kind }

func (d *DHT) Close() error {
	if d.own {
		return d.chip.Close()
	}
	return nil
}

// Read performs one measurement. Calls faster than sensor allows
// return previous result without touching the line.
func (d *DHT) Read() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.kind.minInterval() {
		return d.lastR, d.lastErr
	}
	d.last = now

	r, err := d.read()
	if err != nil {
		r = Invalid()
		err = errors.Annotatef(err, "%s line=%d", d.kind.String(), d.line)
	}
	d.lastR, d.lastErr = r, err
	return r, err
}

func (d *DHT) read() (Reading, error) {
	edges, err := d.capture()
	if err != nil {
		return Invalid(), err
	}
	pulses := HighPulses(edges)
	d.Log.Debugf("dht edges=%d pulses=%v", len(edges), pulses)
	data, err := Decode(pulses)
	if err != nil {
		return Invalid(), err
	}
	return Convert(d.kind, data), nil
}

func (d *DHT) capture() ([]Edge, error) {
	if err := d.start(); err != nil {
		return nil, errors.Annotate(err, "start signal")
	}

	ev, err := d.chip.GetLineEvent(d.line, 0, gpio.GPIOEVENT_REQUEST_BOTH_EDGES, consumer)
	if err != nil {
		return nil, errors.Annotate(err, "listen")
	}
	defer ev.Close()

	edges := make([]Edge, 0, maxEdges)
	var base uint64
	first := true
	deadline := d.now().Add(frameTimeout)
	for len(edges) < maxEdges {
		left := deadline.Sub(d.now())
		if left <= 0 {
			break
		}
		if left > edgeTimeout {
			left = edgeTimeout
		}
		e, err := ev.Wait(left)
		if gpio.IsTimeout(err) {
			break
		}
		if err != nil {
			return edges, errors.Annotate(err, "edge wait")
		}
		if first {
			base, first = e.Timestamp, false
		}
		edges = append(edges, Edge{
			At:     time.Duration(e.Timestamp - base),
			Rising: e.ID == gpio.GPIOEVENT_EVENT_RISING_EDGE,
		})
	}
	if len(edges) == 0 {
		return nil, ErrTimeout
	}
	return edges, nil
}

// start pulls data line low, then releases it to pull-up.
func (d *DHT) start() error {
	out, err := d.chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT|gpio.GPIOHANDLE_REQUEST_OPEN_DRAIN, consumer, d.line)
	if err != nil {
		return err
	}
	set := out.SetFunc(d.line)
	set(0)
	if err = out.Flush(); err != nil {
		out.Close()
		return err
	}
	time.Sleep(d.kind.startLow())
	set(1)
	if err = out.Flush(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
