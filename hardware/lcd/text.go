package lcd

import (
	"bytes"

	"github.com/juju/errors"
	"github.com/paulrosania/go-charset/charset"
	_ "github.com/paulrosania/go-charset/data"
)

const MaxWidth = 40

var spaceBytes = bytes.Repeat([]byte{' '}, MaxWidth)

type Devicer interface {
	Clear()
	CursorYX(y, x uint8) bool
	Write(b []byte)
	Close() error
}

type TextConfig struct {
	PinChip  string
	Pinmap   PinMap
	Page1    bool
	Width    int
	Codepage string
}

// TextSurface is two line character display with envdisplay Surface methods.
// Lines beyond second are ignored, long text is cut at width.
type TextSurface struct {
	open  func() (Devicer, error)
	dev   Devicer
	width int
	cp    string
	tr    charset.Translator
	lines [2][]byte
}

func NewTextSurface(c TextConfig) *TextSurface {
	return newTextSurface(c.Width, c.Codepage, func() (Devicer, error) {
		d := new(LCD)
		if err := d.Init(c.PinChip, c.Pinmap, c.Page1); err != nil {
			return nil, err
		}
		return d, nil
	})
}

func newTextSurface(width int, codepage string, open func() (Devicer, error)) *TextSurface {
	if width <= 0 || width > MaxWidth {
		width = 16
	}
	return &TextSurface{open: open, width: width, cp: codepage}
}

func (self *TextSurface) Init() error {
	if self.cp != "" {
		tr, err := charset.TranslatorTo(self.cp)
		if err != nil {
			return errors.Annotatef(err, "lcd codepage=%s", self.cp)
		}
		self.tr = tr
	}
	dev, err := self.open()
	if err != nil {
		return errors.Trace(err)
	}
	self.dev = dev
	self.dev.Clear()
	return nil
}

func (self *TextSurface) Clear() {
	self.lines[0], self.lines[1] = nil, nil
}

func (self *TextSurface) DrawText(line int, s string) {
	if line < 0 || line >= len(self.lines) {
		return
	}
	self.lines[line] = self.translate(s)
}

// Flush rewrites both lines in place without clear command, looks smoother.
func (self *TextSurface) Flush() error {
	if self.dev == nil {
		return errors.New("lcd not initialized")
	}
	for i, line := range self.lines {
		if !self.dev.CursorYX(uint8(i+1), 1) {
			return errors.Errorf("lcd cursor row=%d rejected", i+1)
		}
		self.dev.Write(self.pad(line))
	}
	return nil
}

func (self *TextSurface) Close() error {
	if self.dev == nil {
		return nil
	}
	return self.dev.Close()
}

func (self *TextSurface) translate(s string) []byte {
	result := []byte(s)
	if self.tr != nil {
		_, tb, err := self.tr.Translate(result, true)
		if err == nil {
			// translator reuses single internal buffer, make a copy
			result = append([]byte(nil), tb...)
		}
	}
	return result
}

// returns `b` cut to width or padded with spaces
func (self *TextSurface) pad(b []byte) []byte {
	if len(b) >= self.width {
		return b[:self.width]
	}
	buf := make([]byte, 0, self.width)
	return append(append(buf, b...), spaceBytes[:self.width-len(b)]...)
}
