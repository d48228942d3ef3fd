package render

import (
	"time"

	"github.com/coreman2200/funtimes-panelport/model"
)

var emptyArea = model.Area{X1: 0, Y1: 0, X2: -1, Y2: -1}

// Display is the engine side of the render target.
type Display struct {
	eng    *Engine
	cfg    DisplayConfig
	screen *Screen

	ready   chan struct{}
	pending bool
	inv     model.Area
}

func (d *Display) HorRes() int { return d.cfg.HorRes }
func (d *Display) VerRes() int { return d.cfg.VerRes }

// Buffers returns the draw buffers the display renders into.
func (d *Display) Buffers() DrawBuffers { return d.cfg.Buffers }

// FlushReady tells the engine the last flushed buffer is free again.
// Extra signals without a pending flush are dropped.
func (d *Display) FlushReady() {
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

func (d *Display) full() model.Area {
	return model.Area{X1: 0, Y1: 0, X2: d.cfg.HorRes - 1, Y2: d.cfg.VerRes - 1}
}

func (d *Display) Invalidate(a model.Area) {
	a = a.Intersect(d.full())
	if a.Empty() {
		return
	}
	d.inv = d.inv.Join(a)
}

func (d *Display) InvalidateAll() { d.inv = d.full() }

// Dirty reports the pending invalidated region.
func (d *Display) Dirty() model.Area { return d.inv }

func (d *Display) wait() {
	<-d.ready
	d.pending = false
}

// refresh renders the invalidated region in strips of as many full lines as a
// draw buffer holds. With two buffers the next strip is rendered while the
// previous one is still being flushed.
func (d *Display) refresh() {
	if d.inv.Empty() {
		return
	}
	start := time.Now()
	area := d.inv
	d.inv = emptyArea

	bufs := [][]model.Color{d.cfg.Buffers.Buf1}
	if d.cfg.Buffers.Buf2 != nil {
		bufs = append(bufs, d.cfg.Buffers.Buf2)
	}
	w := area.Width()
	lines := len(bufs[0]) / w

	active, strips := 0, 0
	for y := area.Y1; y <= area.Y2; y += lines {
		y2 := y + lines - 1
		if y2 > area.Y2 {
			y2 = area.Y2
		}
		strip := model.Area{X1: area.X1, Y1: y, X2: area.X2, Y2: y2}
		buf := bufs[active][:strip.Count()]

		if d.pending && len(bufs) == 1 {
			d.wait()
		}
		d.screen.render(&Canvas{Area: strip, Pix: buf})
		if d.pending {
			d.wait()
		}
		d.pending = true
		d.cfg.Flusher.Flush(d, strip, buf)

		active = (active + 1) % len(bufs)
		strips++
	}
	if d.pending {
		d.wait()
	}

	d.eng.Last.Strips = strips
	d.eng.Last.RefreshMS = float64(time.Since(start).Microseconds()) / 1000.0
}
