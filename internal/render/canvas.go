package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/coreman2200/funtimes-panelport/model"
)

// Face is the bitmap font used by labels.
var Face font.Face = basicfont.Face7x13

// Canvas is a draw.Image over one strip of a draw buffer.
type Canvas struct {
	Area model.Area
	Pix  []model.Color
}

func (c *Canvas) ColorModel() color.Model { return model.ColorModel }
func (c *Canvas) Bounds() image.Rectangle { return c.Area.Rect() }

func (c *Canvas) offset(x, y int) int {
	return (y-c.Area.Y1)*c.Area.Width() + (x - c.Area.X1)
}

func (c *Canvas) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(c.Bounds()) {
		return model.Black
	}
	return c.Pix[c.offset(x, y)]
}

func (c *Canvas) Set(x, y int, col color.Color) {
	if !(image.Point{X: x, Y: y}).In(c.Bounds()) {
		return
	}
	c.Pix[c.offset(x, y)] = model.ColorModel.Convert(col).(model.Color)
}

// Fill paints r clipped to the canvas.
func (c *Canvas) Fill(r image.Rectangle, col model.Color) {
	r = r.Intersect(c.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := c.Pix[c.offset(r.Min.X, y):c.offset(r.Max.X, y)]
		for i := range row {
			row[i] = col
		}
	}
}

// Text draws s with its top-left corner at pt.
func (c *Canvas) Text(pt image.Point, s string, col model.Color) {
	d := font.Drawer{
		Dst:  c,
		Src:  image.NewUniform(col),
		Face: Face,
		Dot:  fixed.P(pt.X, pt.Y+Face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// TextSize returns the pixel extent of s in Face.
func TextSize(s string) image.Point {
	m := Face.Metrics()
	w := font.MeasureString(Face, s).Ceil()
	return image.Pt(w, (m.Ascent + m.Descent).Ceil())
}
