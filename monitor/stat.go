package monitor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/temoto/atomic_clock"
)

// Stat is safe to read from other goroutines while Monitor runs.
type Stat struct {
	Polls    uint32
	Errors   uint32
	Good     uint32
	LastGood atomic_clock.Clock // monotonic, only meaningful when Good>0
}

func (s *Stat) poll(ok bool) {
	atomic.AddUint32(&s.Polls, 1)
	if !ok {
		atomic.AddUint32(&s.Errors, 1)
		return
	}
	s.LastGood.SetNow()
	atomic.AddUint32(&s.Good, 1)
}

// LastGoodAge is time since last valid reading, false if there was none.
func (s *Stat) LastGoodAge() (time.Duration, bool) {
	if atomic.LoadUint32(&s.Good) == 0 {
		return 0, false
	}
	return atomic_clock.Since(&s.LastGood), true
}

func (s *Stat) String() string {
	last := "never"
	if age, ok := s.LastGoodAge(); ok {
		last = age.Truncate(100*time.Millisecond).String() + " ago"
	}
	return fmt.Sprintf("polls=%d errors=%d last_good=%s",
		atomic.LoadUint32(&s.Polls), atomic.LoadUint32(&s.Errors), last)
}
