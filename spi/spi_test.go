package spi

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/coreman2200/funtimes-panelport/model"
)

// memDrawer is a display.Drawer backed by an image.
type memDrawer struct {
	img   *image.NRGBA
	draws []image.Rectangle
}

func (d *memDrawer) String() string          { return "mem" }
func (d *memDrawer) Halt() error             { return nil }
func (d *memDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (d *memDrawer) Bounds() image.Rectangle { return d.img.Bounds() }
func (d *memDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.draws = append(d.draws, r)
	draw.Draw(d.img, r, src, sp, draw.Src)
	return nil
}

func TestPanelDrawsDirtyRegion(t *testing.T) {
	d := &memDrawer{img: image.NewNRGBA(image.Rect(0, 0, 16, 8))}
	p := NewPanel(d, 16, 8)
	assert.Equal(t, 16, p.Width())
	assert.Equal(t, 8, p.Height())

	p.StartWrite()
	p.SetAddrWindow(4, 2, 2, 2)
	p.WritePixels([]model.Color{model.Red, model.Green})
	p.WritePixels([]model.Color{model.Blue, model.White})
	p.EndWrite()

	require.Equal(t, []image.Rectangle{image.Rect(4, 2, 6, 4)}, d.draws)
	assert.Equal(t, model.Red.ToNRGBA(), d.img.NRGBAAt(4, 2))
	assert.Equal(t, model.Green.ToNRGBA(), d.img.NRGBAAt(5, 2))
	assert.Equal(t, model.Blue.ToNRGBA(), d.img.NRGBAAt(4, 3))
	assert.Equal(t, model.White.ToNRGBA(), d.img.NRGBAAt(5, 3))

	// nothing written, nothing drawn
	p.StartWrite()
	p.EndWrite()
	assert.Len(t, d.draws, 1)
}

func TestPanelFlattensOntoStrip(t *testing.T) {
	d := &memDrawer{img: image.NewNRGBA(image.Rect(0, 0, 12, 1))}
	p := NewPanel(d, 4, 3)

	p.StartWrite()
	p.SetAddrWindow(0, 1, 4, 1)
	p.WritePixels([]model.Color{model.Red, model.Red, model.Red, model.Blue})
	p.EndWrite()

	require.Len(t, d.draws, 1)
	assert.Equal(t, d.img.Bounds(), d.draws[0])
	assert.Equal(t, model.Red.ToNRGBA(), d.img.NRGBAAt(4, 0))
	assert.Equal(t, model.Blue.ToNRGBA(), d.img.NRGBAAt(7, 0))
	assert.Equal(t, uint8(0), d.img.NRGBAAt(0, 0).A)
}

func TestPanelSerpentineStrip(t *testing.T) {
	d := &memDrawer{img: image.NewNRGBA(image.Rect(0, 0, 12, 1))}
	p := NewPanel(d, 4, 3)
	p.SetSerpentine(true)

	p.StartWrite()
	p.SetAddrWindow(0, 1, 4, 1)
	p.WritePixels([]model.Color{model.Red, model.Red, model.Red, model.Blue})
	p.EndWrite()

	// row 1 runs right to left
	assert.Equal(t, model.Blue.ToNRGBA(), d.img.NRGBAAt(4, 0))
	assert.Equal(t, model.Red.ToNRGBA(), d.img.NRGBAAt(7, 0))
}

func TestTouchPoll(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: FT6X36_ADDR, W: []byte{0x02}, R: []byte{0x00, 0x00, 0x00, 0x00, 0x00}},
		{Addr: FT6X36_ADDR, W: []byte{0x02}, R: []byte{0x01, 0x80, 150, 0x00, 75}},
		{Addr: FT6X36_ADDR, W: []byte{0x02}, R: []byte{0x01, 0x41, 0x2C, 0x00, 0xF0}},
		{Addr: FT6X36_ADDR, W: []byte{0x02}, R: []byte{0x00, 0x00, 0x00, 0x00, 0x00}},
	}}
	tc := NewTouch(bus, 0, time.Millisecond)

	require.NoError(t, tc.Poll())
	_, _, touched := tc.GetTouch()
	assert.False(t, touched)

	require.NoError(t, tc.Poll())
	x, y, touched := tc.GetTouch()
	assert.True(t, touched)
	assert.Equal(t, 150, x)
	assert.Equal(t, 75, y)

	require.NoError(t, tc.Poll())
	x, y, _ = tc.GetTouch()
	assert.Equal(t, 0x12C, x)
	assert.Equal(t, 0xF0, y)

	// lift keeps the last point
	require.NoError(t, tc.Poll())
	x, _, touched = tc.GetTouch()
	assert.False(t, touched)
	assert.Equal(t, 0x12C, x)

	require.NoError(t, bus.Close())
}

func TestPanelReadsAttachedTouch(t *testing.T) {
	d := &memDrawer{img: image.NewNRGBA(image.Rect(0, 0, 8, 8))}
	p := NewPanel(d, 8, 8)
	_, _, touched := p.GetTouch()
	assert.False(t, touched)

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: FT6X36_ADDR, W: []byte{0x02}, R: []byte{0x01, 0x00, 3, 0x00, 5}},
	}}
	tc := NewTouch(bus, 0, 0)
	require.NoError(t, tc.Poll())
	p.AttachTouch(tc)

	x, y, touched := p.GetTouch()
	assert.True(t, touched)
	assert.Equal(t, 3, x)
	assert.Equal(t, 5, y)
	require.NoError(t, p.Close())
}
