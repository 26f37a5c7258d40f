package monitor

import (
	"bytes"
	"image"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/alive/v2"
	"github.com/temoto/envdisplay/display"
	"github.com/temoto/envdisplay/log2"
	"github.com/temoto/envdisplay/sensor"
)

// failSurface fails Init and counts every other call.
type failSurface struct{ draws int }

func (*failSurface) Init() error            { return errors.New("no ack at 0x3c") }
func (f *failSurface) Clear()               { f.draws++ }
func (f *failSurface) DrawText(int, string) { f.draws++ }
func (f *failSurface) Flush() error         { f.draws++; return nil }
func (*failSurface) Close() error           { return nil }

type rig struct {
	m      *Monitor
	buf    *bytes.Buffer
	mock   *display.Pixel
	sim    *sensor.Sim
	boot   time.Time
	sleeps []time.Duration
}

func newRig(t testing.TB, surface display.Surface) *rig {
	r := &rig{buf: bytes.NewBuffer(nil), boot: time.Now()}
	log := log2.NewWriter(r.buf, log2.LInfo)
	log.SetFlags(0)
	if surface == nil {
		r.mock = display.NewMock(image.Pt(128, 64), 2)
		surface = r.mock
	}
	r.sim = sensor.NewSim(sensor.Reading{Temperature: 23.45, Humidity: 60.2}, 0)
	r.m = New(display.NewScreen(surface, log), r.sim, log)
	r.m.Now = func() time.Time { return r.boot }
	r.m.Sleep = func(d time.Duration) { r.sleeps = append(r.sleeps, d) }
	return r
}

func (r *rig) lines() []string {
	s := strings.TrimSpace(r.buf.String())
	r.buf.Reset()
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (r *rig) join(lines []string) string { return strings.Join(lines, "\n") }

func TestSetup(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil)
	r.m.Setup()
	assert.Equal(t, []string{"Booting...", "myFunction(2,3)=5"}, r.lines())
	assert.Equal(t, []time.Duration{LoadingPause}, r.sleeps)
	assert.True(t, r.m.Screen.Ready())
	assert.Equal(t, []string{display.MsgReady}, r.mock.Lines())
	assert.Equal(t, 2, r.mock.Flushes())
}

func TestPollReading(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil)
	r.m.Setup()
	r.lines()

	r.m.Poll(r.boot.Add(2001 * time.Millisecond))
	assert.Equal(t, []string{"T: 23.4 C, H: 60.2 %"}, r.lines())
	assert.Equal(t, []string{"T: 23.4C", "H: 60.2%"}, r.mock.Lines())
	assert.Equal(t, uint32(1), r.m.Stat.Polls)
	assert.Equal(t, uint32(0), r.m.Stat.Errors)
	age, ok := r.m.Stat.LastGoodAge()
	require.True(t, ok)
	assert.True(t, age >= 0 && age < time.Second, "age=%v", age)
	assert.Contains(t, r.m.Stat.String(), "polls=1 errors=0 last_good=")
	assert.True(t, strings.HasSuffix(r.m.Stat.String(), " ago"), r.m.Stat.String())
}

func TestPollFailure(t *testing.T) {
	t.Parallel()

	type Case struct {
		name  string
		setup func(*sensor.Sim)
	}
	cases := []Case{
		{"error", func(s *sensor.Sim) { s.SetFail(true) }},
		{"temperature-nan", func(s *sensor.Sim) {
			s.Set(sensor.Reading{Temperature: math.NaN(), Humidity: 60.2})
		}},
		{"humidity-nan", func(s *sensor.Sim) {
			s.Set(sensor.Reading{Temperature: 23.4, Humidity: math.NaN()})
		}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			r := newRig(t, nil)
			r.m.Setup()
			r.lines()
			c.setup(r.sim)

			r.m.Poll(r.boot.Add(3 * time.Second))
			assert.Equal(t, []string{"DHT read failed"}, r.lines())
			assert.Equal(t, []string{display.MsgError}, r.mock.Lines())
			assert.Equal(t, uint32(1), r.m.Stat.Errors)
			_, ok := r.m.Stat.LastGoodAge()
			assert.False(t, ok)
			assert.Equal(t, "polls=1 errors=1 last_good=never", r.m.Stat.String())
		})
	}
}

func TestDisplayFailure(t *testing.T) {
	t.Parallel()

	fs := &failSurface{}
	r := newRig(t, fs)
	r.m.Setup()
	lines := r.lines()
	require.True(t, len(lines) >= 3)
	assert.Equal(t, "Booting...", lines[0])
	assert.Contains(t, r.join(lines), "error: display allocation failed")
	assert.Equal(t, "myFunction(2,3)=5", lines[len(lines)-1])
	assert.Empty(t, r.sleeps)

	r.m.Poll(r.boot.Add(2001 * time.Millisecond))
	assert.Equal(t, []string{"T: 23.4 C, H: 60.2 %", "Uptime: 2 s"}, r.lines())
	r.sim.SetFail(true)
	r.m.Poll(r.boot.Add(4002 * time.Millisecond))
	assert.Equal(t, []string{"DHT read failed", "Uptime: 4 s"}, r.lines())
	assert.Equal(t, 0, fs.draws)
	assert.NoError(t, r.m.Shutdown())
	assert.Equal(t, 0, fs.draws)
}

func TestTick(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil)
	r.m.Setup()
	assert.False(t, r.m.Tick(r.boot.Add(Interval)))
	assert.True(t, r.m.Tick(r.boot.Add(Interval+time.Millisecond)))
	assert.False(t, r.m.Tick(r.boot.Add(Interval+2*time.Millisecond)))
	assert.False(t, r.m.Tick(r.boot.Add(2*Interval+time.Millisecond)))
	assert.True(t, r.m.Tick(r.boot.Add(2*Interval+2*time.Millisecond)))
	assert.Equal(t, 2, r.sim.Reads())
}

func TestRun(t *testing.T) {
	t.Parallel()

	r := newRig(t, nil)
	r.m.Setup()
	r.m.sched = NewSchedule(5*time.Millisecond, time.Now())
	a := alive.NewAlive()
	go r.m.Run(a)
	for i := 0; i < 200 && r.sim.Reads() < 2; i++ {
		time.Sleep(5 * time.Millisecond)
	}
	a.Stop()
	a.Wait()
	assert.True(t, r.sim.Reads() >= 2)
	require.NoError(t, r.m.Shutdown())
	assert.Empty(t, r.mock.Lines())
}
