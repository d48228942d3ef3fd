package model

import "image/color"

// RGB565 channel layout, most significant bits first.
const (
	RED_OFFSET   uint8 = 11
	GREEN_OFFSET uint8 = 5
	BLUE_OFFSET  uint8 = 0

	RED_MASK   uint16 = 0x1F << RED_OFFSET
	GREEN_MASK uint16 = 0x3F << GREEN_OFFSET
	BLUE_MASK  uint16 = 0x1F << BLUE_OFFSET
)

// Color is a 16 bit RGB565 pixel, the native format of the panels this port drives.
type Color uint16

// Common colors used by the demo screens.
var (
	Black = Color(0x0000)
	White = Color(0xFFFF)
	Red   = Color(RED_MASK)
	Green = Color(GREEN_MASK)
	Blue  = Color(BLUE_MASK)
)

// RGB packs 8 bit channels into RGB565.
func RGB(r, g, b uint8) Color {
	var c Color
	c.SetR(r)
	c.SetG(g)
	c.SetB(b)
	return c
}

func setchan(c uint16, v uint16, mask uint16, off uint8) uint16 {
	return (c &^ mask) | ((v << off) & mask)
}

// expand widens a channel of the given bit width to 8 bits, replicating the high bits.
func expand(v uint16, bits uint8) uint8 {
	return uint8(v<<(8-bits) | v>>(2*bits-8))
}

func (c *Color) SetR(r uint8) {
	*c = Color(setchan(uint16(*c), uint16(r>>3), RED_MASK, RED_OFFSET))
}
func (c *Color) SetG(g uint8) {
	*c = Color(setchan(uint16(*c), uint16(g>>2), GREEN_MASK, GREEN_OFFSET))
}
func (c *Color) SetB(b uint8) {
	*c = Color(setchan(uint16(*c), uint16(b>>3), BLUE_MASK, BLUE_OFFSET))
}

func (c Color) GetR() uint8 {
	return expand((uint16(c)&RED_MASK)>>RED_OFFSET, 5)
}
func (c Color) GetG() uint8 {
	return expand((uint16(c)&GREEN_MASK)>>GREEN_OFFSET, 6)
}
func (c Color) GetB() uint8 {
	return expand((uint16(c)&BLUE_MASK)>>BLUE_OFFSET, 5)
}

// Swap returns the byte swapped pixel, for sinks that shift MSB first on a little endian host.
func (c Color) Swap() Color {
	return c<<8 | c>>8
}

// ToNRGBA converts to an opaque 8 bit color.
func (c Color) ToNRGBA() color.NRGBA {
	return color.NRGBA{R: c.GetR(), G: c.GetG(), B: c.GetB(), A: 255}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.ToNRGBA().RGBA()
}

// ColorModel converts arbitrary colors to RGB565.
var ColorModel = color.ModelFunc(func(c color.Color) color.Color {
	if cc, ok := c.(Color); ok {
		return cc
	}
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
})
