package display

import (
	"github.com/juju/errors"
	"github.com/temoto/envdisplay/log2"
)

// Screen draws envdisplay messages on Surface.
// Not safe for concurrent use, owned by poll loop.
type Screen struct {
	log   *log2.Log
	s     Surface
	ready bool
	tried bool
}

// NewScreen accepts nil Surface, meaning display is disabled by config.
func NewScreen(s Surface, log *log2.Log) *Screen {
	return &Screen{s: s, log: log}
}

// Initialize brings surface up, only first call has effect.
// Failure is final for this process.
func (sc *Screen) Initialize() bool {
	if sc.tried {
		return sc.ready
	}
	sc.tried = true
	if sc.s == nil {
		sc.log.Infof("display: %v", ErrDisabled)
		return false
	}
	if err := sc.s.Init(); err != nil {
		sc.log.Errorf("display init: %v", errors.ErrorStack(err))
		return false
	}
	sc.ready = true
	return true
}

func (sc *Screen) Ready() bool { return sc.ready }

func (sc *Screen) ShowLoadingScreen() { sc.show(MsgLoading) }
func (sc *Screen) RenderError()       { sc.show(MsgError) }

// ShowReady uses small text where surface supports it.
func (sc *Screen) ShowReady() {
	if st, ok := sc.s.(smallTexter); ok {
		sc.draw(st.DrawSmallText, MsgReady)
		return
	}
	sc.show(MsgReady)
}

// RenderReading shows both values, or error message if any is NaN.
func (sc *Screen) RenderReading(temperature, humidity float64) {
	line1, line2, ok := FormatReading(temperature, humidity)
	if !ok {
		sc.show(MsgError)
		return
	}
	sc.show(line1, line2)
}

// Close blanks the display if it was ever usable and releases it.
func (sc *Screen) Close() error {
	if sc.s == nil {
		return nil
	}
	if sc.ready {
		sc.show()
		sc.ready = false
	}
	return sc.s.Close()
}

func (sc *Screen) show(lines ...string) {
	if sc.ready {
		sc.draw(sc.s.DrawText, lines...)
	}
}

func (sc *Screen) draw(text func(int, string), lines ...string) {
	if !sc.ready {
		return
	}
	sc.s.Clear()
	for i, line := range lines {
		text(i, line)
	}
	if err := sc.s.Flush(); err != nil {
		sc.log.Debugf("display flush: %v", err)
	}
}
