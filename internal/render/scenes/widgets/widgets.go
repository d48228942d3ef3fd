package widgets

import (
	"fmt"
	"image"

	"github.com/coreman2200/funtimes-panelport/internal/render"
	"github.com/coreman2200/funtimes-panelport/model"
)

// Scene is a small widget showcase: a title, a counter button and a status swatch.
type Scene struct {
	name string

	Count  int
	Button *render.Button
	Label  *render.Label
	Swatch *render.Rect
}

func New(name string) *Scene { return &Scene{name: name} }

func (s *Scene) Name() string { return s.name }

var swatches = []model.Color{model.Red, model.Green, model.Blue, model.White}

func (s *Scene) Build(e *render.Engine) *render.Screen {
	d := e.Display()
	w, h := d.HorRes(), d.VerRes()
	scr := render.NewScreen(e, model.RGB(0x20, 0x20, 0x28))

	scr.Add(render.NewRect(image.Rect(0, 0, w, 24), model.RGB(0x37, 0x47, 0x4F)))
	scr.Add(render.NewLabel(image.Pt(8, 6), "panelport widgets", model.White))

	s.Label = render.NewLabel(image.Pt(8, 40), s.caption(), model.White)
	scr.Add(s.Label)

	bw, bh := w/2, h/5
	s.Button = render.NewButton(image.Rect((w-bw)/2, (h-bh)/2, (w+bw)/2, (h+bh)/2), "Press me")
	s.Button.OnClick = func(*render.Button) { s.click() }
	scr.Add(s.Button)

	s.Swatch = render.NewRect(image.Rect(w-40, h-40, w-8, h-8), swatches[0])
	scr.Add(s.Swatch)
	return scr
}

func (s *Scene) caption() string { return fmt.Sprintf("clicks: %d", s.Count) }

func (s *Scene) click() {
	s.Count++
	s.Label.SetText(s.caption())
	s.Swatch.SetColor(swatches[s.Count%len(swatches)])
}
