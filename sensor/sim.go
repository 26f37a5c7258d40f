package sensor

import (
	"sync"

	"github.com/juju/errors"
)

var ErrSimulated = errors.New("simulated read failure")

// Sim is a sensor without hardware, for host runs and tests.
type Sim struct {
	mu        sync.Mutex
	r         Reading
	fail      bool
	failEvery int
	reads     int
}

// NewSim returns sensor producing r, failing every failEvery-th read when failEvery>0.
func NewSim(r Reading, failEvery int) *Sim {
	return &Sim{r: r, failEvery: failEvery}
}

func (s *Sim) Set(r Reading) {
	s.mu.Lock()
	s.r = r
	s.mu.Unlock()
}

func (s *Sim) SetFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *Sim) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Sim) Read() (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.fail || (s.failEvery > 0 && s.reads%s.failEvery == 0) {
		return Invalid(), ErrSimulated
	}
	// NaN set explicitly models driver returning sentinel without error
	return s.r, nil
}

func (*Sim) Close() error { return nil }
