package stress

import (
	"fmt"
	"image"
	"math/rand"

	"github.com/coreman2200/funtimes-panelport/internal/render"
	"github.com/coreman2200/funtimes-panelport/model"
)

const (
	DFLT_BOXES    = 12
	DFLT_PERIOD   = 20 // ms of engine time between animation steps
	DFLT_BOX_SIZE = 24
)

type box struct {
	r      *render.Rect
	dx, dy int
}

// Scene bounces a set of boxes around the screen and reports the frame rate.
type Scene struct {
	name  string
	Boxes int
	Seed  int64

	boxes []box
	fps   *render.Label
}

func New(name string) *Scene { return &Scene{name: name, Boxes: DFLT_BOXES, Seed: 1} }

func (s *Scene) Name() string { return s.name }

func (s *Scene) Build(e *render.Engine) *render.Screen {
	d := e.Display()
	w, h := d.HorRes(), d.VerRes()
	rng := rand.New(rand.NewSource(s.Seed))
	scr := render.NewScreen(e, model.Black)

	s.boxes = s.boxes[:0]
	for i := 0; i < s.Boxes; i++ {
		x := rng.Intn(max(1, w-DFLT_BOX_SIZE))
		y := rng.Intn(max(1, h-DFLT_BOX_SIZE))
		c := model.RGB(uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)))
		b := box{
			r:  render.NewRect(image.Rect(x, y, x+DFLT_BOX_SIZE, y+DFLT_BOX_SIZE), c),
			dx: 1 + rng.Intn(4),
			dy: 1 + rng.Intn(4),
		}
		s.boxes = append(s.boxes, b)
		scr.Add(b.r)
	}
	s.fps = render.NewLabel(image.Pt(4, 4), "fps: --", model.White)
	scr.Add(s.fps)

	e.AddTimer(DFLT_PERIOD, func(*render.Timer) { s.step(w, h) })

	var lastFrames uint64
	e.AddTimer(1000, func(t *render.Timer) {
		frames := t.Engine().Frames
		s.fps.SetText(fmt.Sprintf("fps: %d", frames-lastFrames))
		lastFrames = frames
	})
	return scr
}

func (s *Scene) step(w, h int) {
	for i := range s.boxes {
		b := &s.boxes[i]
		r := b.r.Bounds().Add(image.Pt(b.dx, b.dy))
		if r.Min.X < 0 || r.Max.X > w {
			b.dx = -b.dx
			r = r.Add(image.Pt(2*b.dx, 0))
		}
		if r.Min.Y < 0 || r.Max.Y > h {
			b.dy = -b.dy
			r = r.Add(image.Pt(0, 2*b.dy))
		}
		b.r.SetBounds(r)
	}
}

// Positions returns the current box rectangles.
func (s *Scene) Positions() []image.Rectangle {
	out := make([]image.Rectangle, len(s.boxes))
	for i, b := range s.boxes {
		out[i] = b.r.Bounds()
	}
	return out
}
