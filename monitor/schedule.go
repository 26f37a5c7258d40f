package monitor

import "time"

// Interval between sensor polls, fixed.
const Interval = 2 * time.Second

// Schedule fires when time since previous fire strictly exceeds interval.
// Uses monotonic time.Time, so there is no counter wraparound.
type Schedule struct {
	interval time.Duration
	last     time.Time
}

func NewSchedule(interval time.Duration, start time.Time) *Schedule {
	return &Schedule{interval: interval, last: start}
}

func (s *Schedule) Due(now time.Time) bool { return now.Sub(s.last) > s.interval }

func (s *Schedule) Fire(now time.Time) { s.last = now }

// Next is the deadline, Due becomes true right after it.
func (s *Schedule) Next() time.Time { return s.last.Add(s.interval) }

// Wait sleeps until Due or stop is closed.
// Returns the time it woke up at and false if stopped.
func (s *Schedule) Wait(stop <-chan struct{}) (time.Time, bool) {
	for {
		now := time.Now()
		if s.Due(now) {
			return now, true
		}
		timer := time.NewTimer(s.Next().Sub(now) + time.Millisecond)
		select {
		case <-stop:
			timer.Stop()
			return now, false
		case <-timer.C:
		}
	}
}
