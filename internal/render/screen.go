package render

import (
	"image"

	"github.com/coreman2200/funtimes-panelport/model"
)

// Object is anything that can be placed on a Screen.
type Object interface {
	Bounds() image.Rectangle
	Draw(c *Canvas)
}

// Pressable objects receive pointer press and release. Release reports
// whether the pointer was still inside the object.
type Pressable interface {
	Object
	Press()
	Release(inside bool)
}

// Screen is the root of a scene graph. Mutations invalidate the affected
// regions of the display the screen is loaded on.
type Screen struct {
	eng  *Engine
	bg   model.Color
	objs []Object
}

func NewScreen(e *Engine, bg model.Color) *Screen {
	return &Screen{eng: e, bg: bg}
}

func (s *Screen) Engine() *Engine { return s.eng }

func (s *Screen) active() bool { return s.eng != nil && s.eng.Screen() == s }

func (s *Screen) invalidate(r image.Rectangle) {
	if s.active() && !r.Empty() {
		s.eng.Invalidate(model.AreaFromRect(r))
	}
}

func (s *Screen) SetBackground(c model.Color) {
	s.bg = c
	if s.active() {
		s.eng.disp.InvalidateAll()
	}
}

// Add appends o on top of the existing objects.
func (s *Screen) Add(o Object) {
	s.objs = append(s.objs, o)
	if b, ok := o.(interface{ attach(*Screen) }); ok {
		b.attach(s)
	}
	s.invalidate(o.Bounds())
}

func (s *Screen) Remove(o Object) {
	for i, x := range s.objs {
		if x == o {
			s.objs = append(s.objs[:i], s.objs[i+1:]...)
			s.invalidate(o.Bounds())
			return
		}
	}
}

// Len returns the number of objects on the screen.
func (s *Screen) Len() int { return len(s.objs) }

func (s *Screen) pressableAt(pt image.Point) Pressable {
	for i := len(s.objs) - 1; i >= 0; i-- {
		if p, ok := s.objs[i].(Pressable); ok && pt.In(p.Bounds()) {
			return p
		}
	}
	return nil
}

func (s *Screen) render(c *Canvas) {
	c.Fill(c.Bounds(), s.bg)
	for _, o := range s.objs {
		if o.Bounds().Overlaps(c.Bounds()) {
			o.Draw(c)
		}
	}
}

type base struct {
	scr    *Screen
	bounds image.Rectangle
}

func (b *base) attach(s *Screen)        { b.scr = s }
func (b *base) Bounds() image.Rectangle { return b.bounds }

func (b *base) redraw() {
	if b.scr != nil {
		b.scr.invalidate(b.bounds)
	}
}

// move changes the bounds, invalidating both the old and the new region.
func (b *base) move(r image.Rectangle) {
	b.redraw()
	b.bounds = r
	b.redraw()
}

// Rect is a filled rectangle.
type Rect struct {
	base
	color model.Color
}

func NewRect(r image.Rectangle, c model.Color) *Rect {
	return &Rect{base: base{bounds: r}, color: c}
}

func (r *Rect) Draw(c *Canvas)              { c.Fill(r.bounds, r.color) }
func (r *Rect) SetBounds(b image.Rectangle) { r.move(b) }
func (r *Rect) Color() model.Color          { return r.color }
func (r *Rect) SetColor(c model.Color) {
	r.color = c
	r.redraw()
}

// Label is a single line of text.
type Label struct {
	base
	text  string
	color model.Color
}

func NewLabel(pt image.Point, text string, c model.Color) *Label {
	l := &Label{color: c, text: text}
	l.bounds = image.Rectangle{Min: pt, Max: pt.Add(TextSize(text))}
	return l
}

func (l *Label) Draw(c *Canvas) { c.Text(l.bounds.Min, l.text, l.color) }
func (l *Label) Text() string   { return l.text }
func (l *Label) SetText(s string) {
	l.text = s
	l.move(image.Rectangle{Min: l.bounds.Min, Max: l.bounds.Min.Add(TextSize(s))})
}

// Button is a rectangle with a centered caption that fires OnClick when a
// press is released inside it.
type Button struct {
	base
	Caption string
	Normal  model.Color
	Active  model.Color
	Text    model.Color
	OnClick func(b *Button)

	pressed bool
}

func NewButton(r image.Rectangle, caption string) *Button {
	return &Button{
		base:    base{bounds: r},
		Caption: caption,
		Normal:  model.RGB(0x21, 0x96, 0xF3),
		Active:  model.RGB(0x0D, 0x47, 0xA1),
		Text:    model.White,
	}
}

func (b *Button) Pressed() bool { return b.pressed }

func (b *Button) Draw(c *Canvas) {
	col := b.Normal
	if b.pressed {
		col = b.Active
	}
	c.Fill(b.bounds, col)
	sz := TextSize(b.Caption)
	pt := b.bounds.Min.Add(b.bounds.Size().Sub(sz).Div(2))
	c.Text(pt, b.Caption, b.Text)
}

func (b *Button) Press() {
	b.pressed = true
	b.redraw()
}

func (b *Button) Release(inside bool) {
	b.pressed = false
	b.redraw()
	if inside && b.OnClick != nil {
		b.OnClick(b)
	}
}

// SetCaption changes the text drawn on the button.
func (b *Button) SetCaption(s string) {
	b.Caption = s
	b.redraw()
}
