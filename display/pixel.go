package display

import (
	"image"
	"image/draw"
	"sort"
	"strings"

	"github.com/juju/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/periph/devices/ssd1306/image1bit"
)

const (
	glyphW = 7
	glyphH = 13
)

// Drawer is the part of periph display device used here.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// Pixel is 1-bit frame buffer with basic 7x13 font, text lines are
// glyphH*scale pixels apart. Without device it's a mock, see String().
type Pixel struct {
	open  func() (Drawer, error)
	dev   Drawer
	img   *image1bit.VerticalLSB
	size  image.Point
	scale int
	face  font.Face
	text  map[int]string

	flushes int
}

func newPixel(size image.Point, scale int, open func() (Drawer, error)) *Pixel {
	if scale < 1 {
		scale = 1
	}
	p := &Pixel{
		open:  open,
		size:  size,
		scale: scale,
		face:  basicfont.Face7x13,
		text:  make(map[int]string),
	}
	p.img = image1bit.NewVerticalLSB(image.Rectangle{Max: size})
	return p
}

func NewMock(size image.Point, scale int) *Pixel { return newPixel(size, scale, nil) }

func (p *Pixel) Init() error {
	if p.open == nil {
		return nil
	}
	dev, err := p.open()
	if err != nil {
		return errors.Trace(err)
	}
	p.dev = dev
	if size := dev.Bounds().Size(); size != p.size {
		p.size = size
		p.img = image1bit.NewVerticalLSB(image.Rectangle{Max: size})
	}
	return nil
}

func (p *Pixel) Clear() {
	draw.Draw(p.img, p.img.Bounds(), &image.Uniform{C: image1bit.Off}, image.Point{}, draw.Src)
	p.text = make(map[int]string)
}

func (p *Pixel) DrawText(line int, s string) { p.drawText(line, s, p.scale) }

// DrawSmallText draws at scale 1 regardless of configured scale.
func (p *Pixel) DrawSmallText(line int, s string) { p.drawText(line, s, 1) }

func (p *Pixel) drawText(line int, s string, want int) {
	p.text[line] = s
	w := font.MeasureString(p.face, s).Ceil()
	if w == 0 {
		return
	}
	glyphs := image.NewGray(image.Rect(0, 0, w, glyphH))
	d := font.Drawer{
		Dst:  glyphs,
		Src:  image.White,
		Face: p.face,
		Dot:  fixed.P(0, p.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)

	scale := fitScale(w, want, p.size.X)
	y := line * glyphH * want
	dr := image.Rect(0, y, w*scale, y+glyphH*scale)
	xdraw.NearestNeighbor.Scale(p.img, dr, glyphs, glyphs.Bounds(), xdraw.Src, nil)
}

// too wide text falls back to scale 1 rather than being cut
func (p *Pixel) fitScale(textWidth int) int { return fitScale(textWidth, p.scale, p.size.X) }

func fitScale(textWidth, scale, maxWidth int) int {
	if textWidth*scale > maxWidth {
		return 1
	}
	return scale
}

func (p *Pixel) Flush() error {
	p.flushes++
	if p.dev == nil {
		return nil
	}
	return p.dev.Draw(p.dev.Bounds(), p.img, image.Point{})
}

func (p *Pixel) Close() error {
	if p.dev == nil {
		return nil
	}
	return p.dev.Halt()
}

func (p *Pixel) Size() image.Point { return p.size }
func (p *Pixel) Flushes() int      { return p.flushes }

// Lines returns text drawn since last Clear, ordered by line number.
func (p *Pixel) Lines() []string {
	keys := make([]int, 0, len(p.text))
	for k := range p.text {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	ss := make([]string, len(keys))
	for i, k := range keys {
		ss[i] = p.text[k]
	}
	return ss
}

func (p *Pixel) String() string {
	b := strings.Builder{}
	b.Grow((p.size.X*len("█") + 1) * p.size.Y)
	for y := 0; y < p.size.Y; y++ {
		for x := 0; x < p.size.X; x++ {
			if p.img.BitAt(x, y) {
				b.WriteString("█")
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
