// Package sim is an in-memory pixel sink for hosted runs and tests.
package sim

import (
	"image"
	"image/draw"
	"sync"

	"github.com/coreman2200/funtimes-panelport/model"
)

// Sink renders into an RGBA frame. Touch is injected with Touch and Release.
type Sink struct {
	mu    sync.Mutex
	frame *image.RGBA
	win   model.Window
	dirty image.Rectangle

	touch   image.Point
	touched bool

	// OnFlush, if set, is called after every EndWrite with the region written
	// and a copy of its pixels. It runs on the drive loop.
	OnFlush func(r image.Rectangle, px *image.RGBA)

	Transfers int
}

func New(w, h int) *Sink {
	return &Sink{frame: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func (s *Sink) Width() int  { return s.frame.Rect.Dx() }
func (s *Sink) Height() int { return s.frame.Rect.Dy() }

func (s *Sink) StartWrite() {
	s.mu.Lock()
	s.dirty = image.Rectangle{}
	s.mu.Unlock()
}

func (s *Sink) SetAddrWindow(x, y, w, h int) {
	s.mu.Lock()
	s.win = model.NewWindow(x, y, w, h)
	s.mu.Unlock()
}

func (s *Sink) WritePixels(px []model.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.win.Advance(len(px), func(x, y, length, off int) {
		for i := 0; i < length; i++ {
			if !(image.Point{X: x + i, Y: y}).In(s.frame.Rect) {
				continue
			}
			c := px[off+i].ToNRGBA()
			j := s.frame.PixOffset(x+i, y)
			s.frame.Pix[j+0], s.frame.Pix[j+1], s.frame.Pix[j+2], s.frame.Pix[j+3] = c.R, c.G, c.B, 0xff
		}
		s.dirty = s.dirty.Union(image.Rect(x, y, x+length, y+1).Intersect(s.frame.Rect))
	})
	s.Transfers++
}

func (s *Sink) EndWrite() {
	s.mu.Lock()
	r := s.dirty
	var sub *image.RGBA
	if s.OnFlush != nil && !r.Empty() {
		sub = image.NewRGBA(r)
		draw.Draw(sub, r, s.frame, r.Min, draw.Src)
	}
	fn := s.OnFlush
	s.mu.Unlock()
	if sub != nil {
		fn(r, sub)
	}
}

func (s *Sink) GetTouch() (int, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch.X, s.touch.Y, s.touched
}

// Touch presses at (x, y) until Release.
func (s *Sink) Touch(x, y int) {
	s.mu.Lock()
	s.touch, s.touched = image.Pt(x, y), true
	s.mu.Unlock()
}

func (s *Sink) Release() {
	s.mu.Lock()
	s.touched = false
	s.mu.Unlock()
}

// Snapshot returns a copy of the whole frame.
func (s *Sink) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.frame.Rect)
	copy(out.Pix, s.frame.Pix)
	return out
}

// At returns the pixel at (x, y) as the sink stored it.
func (s *Sink) At(x, y int) model.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.frame.RGBAAt(x, y)
	return model.RGB(c.R, c.G, c.B)
}
