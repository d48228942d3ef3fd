//go:build pyportal

// Command panelport-pyportal runs the display port on an Adafruit PyPortal:
// ILI9341 over the 8-bit parallel bus and the four-wire resistive panel.
package main

import (
	"context"
	"machine"

	"github.com/rs/zerolog/log"
	"tinygo.org/x/drivers/ili9341"
	"tinygo.org/x/drivers/touch/resistive"

	"github.com/coreman2200/funtimes-panelport/internal/port"
	"github.com/coreman2200/funtimes-panelport/internal/render/scenes/widgets"
	"github.com/coreman2200/funtimes-panelport/model"
)

// raw ADC calibration, 10-bit after the >>6
const (
	xMin, xMax = 750, 325
	yMin, yMax = 840, 240
	zPressed   = 100
)

type panel struct {
	lcd   *ili9341.Device
	touch *resistive.FourWire
	w, h  int
	win   model.Window
	row   []uint16
}

func (p *panel) Width() int  { return p.w }
func (p *panel) Height() int { return p.h }

func (p *panel) StartWrite() {}
func (p *panel) EndWrite()   {}

func (p *panel) SetAddrWindow(x, y, w, h int) { p.win = model.NewWindow(x, y, w, h) }

// WritePixels pushes each row span as its own bitmap so the controller window
// never has to wrap mid-run.
func (p *panel) WritePixels(px []model.Color) {
	p.win.Advance(len(px), func(x, y, length, off int) {
		for i := 0; i < length; i++ {
			p.row[i] = uint16(px[off+i])
		}
		if err := p.lcd.DrawRGBBitmap(int16(x), int16(y), p.row[:length], int16(length), 1); err != nil {
			log.Error().Err(err).Int("y", y).Msg("draw")
		}
	})
}

func (p *panel) GetTouch() (int, int, bool) {
	pt := p.touch.ReadTouchPoint()
	if pt.Z>>6 <= zPressed {
		return 0, 0, false
	}
	x := mapval(pt.X>>6, xMin, xMax, 0, p.w)
	y := mapval(pt.Y>>6, yMin, yMax, 0, p.h)
	return clamp(x, p.w), clamp(y, p.h), true
}

func mapval(v, inMin, inMax, outMin, outMax int) int {
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func main() {
	machine.TFT_BACKLIGHT.Configure(machine.PinConfig{Mode: machine.PinOutput})

	machine.InitADC()
	rt := &resistive.FourWire{}
	rt.Configure(&resistive.FourWireConfig{
		YP: machine.TOUCH_YD,
		YM: machine.TOUCH_YU,
		XP: machine.TOUCH_XR,
		XM: machine.TOUCH_XL,
	})

	lcd := ili9341.NewParallel(
		machine.LCD_DATA0,
		machine.TFT_WR,
		machine.TFT_DC,
		machine.TFT_CS,
		machine.TFT_RESET,
		machine.TFT_RD,
	)
	lcd.Configure(ili9341.Config{})
	w, h := lcd.Size()
	machine.TFT_BACKLIGHT.High()

	sink := &panel{lcd: lcd, touch: rt, w: int(w), h: int(h), row: make([]uint16, int(w))}

	// 32 lines keeps the draw buffer inside the SAMD51 heap
	p, err := port.Initialize(sink, port.Config{
		LineCount: 32,
		Platform:  port.PlatformRTOS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("display port init failed")
	}
	p.Do(func(g *port.Guard) {
		g.Engine().LoadScreen(widgets.New("widgets").Build(g.Engine()))
	})

	if err := p.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("display port start failed")
	}
	select {}
}
