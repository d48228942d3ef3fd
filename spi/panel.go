package spi

import (
	"fmt"
	"image"
	"io"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/funtimes-panelport/internal/layout"
	"github.com/coreman2200/funtimes-panelport/model"
)

const (
	DRIVER_SSD1306 = "ssd1306"
	DRIVER_NRZLED  = "nrzled"
	DRIVER_CONSOLE = "console"

	DFLT_REFRESH_RATE = 30
)

// TouchReader reports the latest touch point without blocking.
type TouchReader interface {
	GetTouch() (x, y int, touched bool)
}

type Options struct {
	Dev     string // spireg name, "" for the first port
	Driver  string // ssd1306 | nrzled | console
	DCPin   string // ssd1306 data/command pin
	SpeedHz int
	Width   int
	Height  int

	// Serpentine reverses odd rows on LED matrices.
	Serpentine bool
}

// Panel is a pixel sink in front of any periph display.Drawer. Pixels land in a
// local frame and the touched region is pushed to the drawer on EndWrite.
// Drawers one pixel high (LED strips) get the frame row by row as one line.
type Panel struct {
	drawer display.Drawer
	frame  *image.NRGBA
	line   *image.NRGBA
	grid   layout.Grid
	win    model.Window
	dirty  image.Rectangle
	port   spi.PortCloser
	touch  TouchReader

	Spi bool
}

// NewPanel wraps d with a w x h frame.
func NewPanel(d display.Drawer, w, h int) *Panel {
	p := &Panel{
		drawer: d,
		frame:  image.NewNRGBA(image.Rect(0, 0, w, h)),
		grid:   layout.Grid{W: w, H: h},
	}
	if b := d.Bounds(); b.Dy() == 1 && h > 1 {
		p.line = image.NewNRGBA(image.Rect(0, 0, p.grid.Len(), 1))
	}
	return p
}

// SetSerpentine flips odd rows when flattening onto a strip.
func (p *Panel) SetSerpentine(on bool) { p.grid.XFlipEveryRow = on }

// Open finds the SPI port and builds the drawer named by o.Driver. Without an
// SPI port it falls back to printing on the console.
func Open(o Options) (*Panel, error) {
	if o.Driver == DRIVER_CONSOLE {
		return NewPanel(screen.New(o.Width*o.Height), o.Width, o.Height), nil
	}
	port, err := spireg.Open(o.Dev)
	if err != nil {
		log.Warn().Err(err).Str("dev", o.Dev).Msg("no SPI port, printing at the console")
		return NewPanel(screen.New(o.Width*o.Height), o.Width, o.Height), nil
	}
	if o.SpeedHz > 0 {
		if err := port.LimitSpeed(physic.Frequency(o.SpeedHz) * physic.Hertz); err != nil {
			port.Close()
			return nil, fmt.Errorf("spi speed %d: %w", o.SpeedHz, err)
		}
	}

	var d display.Drawer
	switch o.Driver {
	case DRIVER_SSD1306, "":
		var dc gpio.PinOut
		if o.DCPin != "" {
			if dc = gpioreg.ByName(o.DCPin); dc == nil {
				port.Close()
				return nil, fmt.Errorf("dc pin %q not found", o.DCPin)
			}
		}
		opts := ssd1306.DefaultOpts
		if o.Width > 0 && o.Height > 0 {
			opts.W, opts.H = o.Width, o.Height
		}
		d, err = ssd1306.NewSPI(port, dc, &opts)
	case DRIVER_NRZLED:
		d, err = nrzled.NewSPI(port, &nrzled.Opts{
			NumPixels: o.Width * o.Height,
			Channels:  3,
			Freq:      ((DFLT_REFRESH_RATE * 3) + 100) * physic.KiloHertz,
		})
	default:
		err = fmt.Errorf("unknown spi driver %q", o.Driver)
	}
	if err != nil {
		port.Close()
		return nil, err
	}

	w, h := o.Width, o.Height
	if b := d.Bounds(); b.Dy() > 1 {
		w, h = b.Dx(), b.Dy()
	}
	p := NewPanel(d, w, h)
	p.SetSerpentine(o.Serpentine)
	p.port, p.Spi = port, true
	return p, nil
}

// AttachTouch makes GetTouch read from t.
func (p *Panel) AttachTouch(t TouchReader) { p.touch = t }

func (p *Panel) Width() int  { return p.frame.Rect.Dx() }
func (p *Panel) Height() int { return p.frame.Rect.Dy() }

func (p *Panel) StartWrite() { p.dirty = image.Rectangle{} }

func (p *Panel) SetAddrWindow(x, y, w, h int) { p.win = model.NewWindow(x, y, w, h) }

func (p *Panel) WritePixels(px []model.Color) {
	p.win.Advance(len(px), func(x, y, length, off int) {
		for i := 0; i < length; i++ {
			if (image.Point{X: x + i, Y: y}).In(p.frame.Rect) {
				p.frame.SetNRGBA(x+i, y, px[off+i].ToNRGBA())
			}
		}
		p.dirty = p.dirty.Union(image.Rect(x, y, x+length, y+1).Intersect(p.frame.Rect))
	})
}

func (p *Panel) EndWrite() {
	if p.dirty.Empty() {
		return
	}
	var err error
	if p.line != nil {
		for y := 0; y < p.Height(); y++ {
			for x := 0; x < p.Width(); x++ {
				p.line.SetNRGBA(p.grid.Index(x, y), 0, p.frame.NRGBAAt(x, y))
			}
		}
		err = p.drawer.Draw(p.drawer.Bounds(), p.line, image.Point{})
	} else {
		err = p.drawer.Draw(p.dirty, p.frame, p.dirty.Min)
	}
	if err != nil {
		log.Error().Err(err).Stringer("drawer", p.drawer).Msg("draw")
	}
}

func (p *Panel) GetTouch() (int, int, bool) {
	if p.touch == nil {
		return 0, 0, false
	}
	return p.touch.GetTouch()
}

// Close halts the drawer, releases the SPI port and closes the touch reader
// if it is an io.Closer.
func (p *Panel) Close() error {
	err := p.drawer.Halt()
	if c, ok := p.touch.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if p.port != nil {
		if cerr := p.port.Close(); cerr != nil && err == nil {
			err = cerr
		}
		p.port = nil
	}
	return err
}
