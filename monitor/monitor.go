// Package monitor owns setup sequence and periodic sensor poll.
package monitor

import (
	"time"

	"github.com/temoto/alive/v2"
	"github.com/temoto/envdisplay/display"
	"github.com/temoto/envdisplay/helpers"
	"github.com/temoto/envdisplay/log2"
	"github.com/temoto/envdisplay/sensor"
)

const LoadingPause = 1 * time.Second

// Monitor holds display and sensor state of the process.
// Screen and Sensor are touched only from the goroutine calling Setup, Poll, Run.
type Monitor struct {
	Log    *log2.Log
	Screen *display.Screen
	Sensor sensor.Sensor
	Stat   Stat

	// Sleep and Now are replaced by tests
	Sleep func(time.Duration)
	Now   func() time.Time

	boot  time.Time
	sched *Schedule
}

func New(screen *display.Screen, s sensor.Sensor, log *log2.Log) *Monitor {
	return &Monitor{
		Log:    log,
		Screen: screen,
		Sensor: s,
		Sleep:  time.Sleep,
		Now:    time.Now,
	}
}

// Setup is boot sequence. Display failure is logged, never fatal.
func (m *Monitor) Setup() {
	m.boot = m.Now()
	m.Log.Info("Booting...")

	if m.Screen.Initialize() {
		m.Screen.ShowLoadingScreen()
		m.Sleep(LoadingPause)
		m.Screen.ShowReady()
	} else {
		m.Log.Error("display allocation failed, readings go to log only")
	}

	m.Log.Infof("myFunction(2,3)=%d", add(2, 3))
	m.sched = NewSchedule(Interval, m.boot)
}

// Poll performs one poll action regardless of schedule.
func (m *Monitor) Poll(now time.Time) {
	r, err := m.Sensor.Read()
	ok := err == nil && r.Valid()
	m.Stat.poll(ok)
	if !ok {
		if err != nil {
			m.Log.Debugf("sensor: %v", err)
		}
		m.Log.Info("DHT read failed")
		m.Screen.RenderError()
	} else {
		m.Screen.RenderReading(r.Temperature, r.Humidity)
		m.Log.Info(display.FormatLog(r.Temperature, r.Humidity))
	}
	if !m.Screen.Ready() {
		m.Log.Infof("Uptime: %d s", m.Uptime(now)/time.Second)
	}
}

// Tick polls if due, reports whether it did.
func (m *Monitor) Tick(now time.Time) bool {
	if m.sched == nil || !m.sched.Due(now) {
		return false
	}
	m.sched.Fire(now)
	m.Poll(now)
	return true
}

func (m *Monitor) Uptime(now time.Time) time.Duration { return now.Sub(m.boot) }

// Run polls until a is stopping. Call after Setup.
func (m *Monitor) Run(a *alive.Alive) {
	if !a.Add(1) {
		return
	}
	defer a.Done()
	for {
		now, ok := m.sched.Wait(a.StopChan())
		if !ok {
			return
		}
		m.Tick(now)
	}
}

// Shutdown blanks display and releases hardware.
func (m *Monitor) Shutdown() error {
	return helpers.FoldErrors([]error{
		m.Screen.Close(),
		m.Sensor.Close(),
	})
}

func add(x, y int) int { return x + y }
