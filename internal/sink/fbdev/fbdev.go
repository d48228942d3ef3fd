// Package fbdev drives a Linux framebuffer with an optional evdev touch panel.
package fbdev

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-panelport/model"
)

var ErrUnsupported = errors.New("framebuffer not supported on this platform")

// Channel is the bit position of one color channel within a pixel.
type Channel struct {
	Offset, Length uint32
}

// Format is the pixel layout reported by the framebuffer driver.
type Format struct {
	BPP                     int
	Red, Green, Blue, Alpha Channel
}

var (
	RGB565   = Format{BPP: 16, Red: Channel{11, 5}, Green: Channel{5, 6}, Blue: Channel{0, 5}}
	XRGB8888 = Format{BPP: 32, Red: Channel{16, 8}, Green: Channel{8, 8}, Blue: Channel{0, 8}}
	ARGB8888 = Format{BPP: 32, Red: Channel{16, 8}, Green: Channel{8, 8}, Blue: Channel{0, 8}, Alpha: Channel{24, 8}}
)

func byteChannel(c Channel) bool { return c.Length == 8 && c.Offset%8 == 0 && c.Offset <= 24 }

// check accepts RGB565 at 16 bpp and any byte-aligned 8 bit per channel layout at 32 bpp.
func (f Format) check() error {
	switch f.BPP {
	case 16:
		if f.Red == RGB565.Red && f.Green == RGB565.Green && f.Blue == RGB565.Blue {
			return nil
		}
	case 32:
		if byteChannel(f.Red) && byteChannel(f.Green) && byteChannel(f.Blue) &&
			(f.Alpha.Length == 0 || byteChannel(f.Alpha)) {
			return nil
		}
	}
	return fmt.Errorf("%d bpp r%d/%d g%d/%d b%d/%d: %w", f.BPP,
		f.Red.Offset, f.Red.Length, f.Green.Offset, f.Green.Length, f.Blue.Offset, f.Blue.Length, ErrUnsupported)
}

// Sink writes pixels straight into framebuffer memory.
type Sink struct {
	mem    []byte
	width  int
	height int
	stride int
	format Format

	win   model.Window
	touch *Touch

	closer func() error
}

func newSink(mem []byte, w, h, stride int, f Format) (*Sink, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	if stride < w*f.BPP/8 || len(mem) < stride*h {
		return nil, fmt.Errorf("framebuffer %dx%d stride %d does not fit %d bytes", w, h, stride, len(mem))
	}
	return &Sink{mem: mem, width: w, height: h, stride: stride, format: f}, nil
}

func (s *Sink) pixel32(c model.Color) uint32 {
	f := s.format
	v := uint32(c.GetR())<<f.Red.Offset | uint32(c.GetG())<<f.Green.Offset | uint32(c.GetB())<<f.Blue.Offset
	if f.Alpha.Length > 0 {
		v |= 0xff << f.Alpha.Offset
	}
	return v
}

func (s *Sink) Width() int  { return s.width }
func (s *Sink) Height() int { return s.height }

func (s *Sink) StartWrite() {}
func (s *Sink) EndWrite()   {}

func (s *Sink) SetAddrWindow(x, y, w, h int) { s.win = model.NewWindow(x, y, w, h) }

func (s *Sink) WritePixels(px []model.Color) {
	s.win.Advance(len(px), func(x, y, length, off int) {
		if y < 0 || y >= s.height {
			return
		}
		row := s.mem[y*s.stride:]
		for i := 0; i < length; i++ {
			xx := x + i
			if xx < 0 || xx >= s.width {
				continue
			}
			c := px[off+i]
			if s.format.BPP == 16 {
				binary.LittleEndian.PutUint16(row[xx*2:], uint16(c))
			} else {
				binary.LittleEndian.PutUint32(row[xx*4:], s.pixel32(c))
			}
		}
	})
}

// AttachTouch makes GetTouch read from t.
func (s *Sink) AttachTouch(t *Touch) { s.touch = t }

func (s *Sink) GetTouch() (int, int, bool) {
	if s.touch == nil {
		return 0, 0, false
	}
	return s.touch.Read()
}

func (s *Sink) Close() error {
	var err error
	if s.touch != nil {
		err = s.touch.Close()
	}
	if s.closer != nil {
		if cerr := s.closer(); cerr != nil {
			err = cerr
		}
		s.closer = nil
	}
	return err
}
