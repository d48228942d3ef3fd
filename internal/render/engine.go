package render

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/coreman2200/funtimes-panelport/model"
)

var (
	ErrDisplayRegistered = errors.New("display already registered")
	ErrInvalidDisplay    = errors.New("invalid display config")
)

// Engine is a small retained-mode UI engine: a millisecond tick clock, one
// display rendered in strips through a Flusher, pointer inputs and timers.
//
// Apart from TickInc and TickGet, an Engine is not safe for concurrent use.
// Callers serialize Handler and every scene mutation with one external lock.
type Engine struct {
	tick atomic.Uint32

	disp     *Display
	pointers []*Pointer
	timers   []*Timer

	// metrics (last durations in ms)
	Last struct {
		HandlerMS float64
		RefreshMS float64
		Strips    int
	}
	Frames uint64
}

func NewEngine() *Engine {
	return &Engine{}
}

// TickInc advances the engine clock by ms milliseconds.
func (e *Engine) TickInc(ms uint32) { e.tick.Add(ms) }

// TickGet returns the engine clock in milliseconds.
func (e *Engine) TickGet() uint32 { return e.tick.Load() }

// TickElaps returns milliseconds elapsed since prev, wrap-safe.
func (e *Engine) TickElaps(prev uint32) uint32 { return e.TickGet() - prev }

// RegisterDisplay creates the render target. Buf1 must hold at least one full line.
func (e *Engine) RegisterDisplay(cfg DisplayConfig) (*Display, error) {
	if e.disp != nil {
		return nil, ErrDisplayRegistered
	}
	if cfg.HorRes <= 0 || cfg.VerRes <= 0 || cfg.Flusher == nil {
		return nil, ErrInvalidDisplay
	}
	if len(cfg.Buffers.Buf1) < cfg.HorRes {
		return nil, errors.New("draw buffer smaller than one line")
	}
	if cfg.Buffers.Buf2 != nil && len(cfg.Buffers.Buf2) != len(cfg.Buffers.Buf1) {
		return nil, errors.New("draw buffers differ in size")
	}
	d := &Display{
		eng:   e,
		cfg:   cfg,
		ready: make(chan struct{}, 1),
		inv:   emptyArea,
	}
	e.disp = d
	d.screen = NewScreen(e, model.Black)
	return d, nil
}

// UnregisterDisplay drops the render target and its draw buffers. The engine
// renders nothing until another display is registered.
func (e *Engine) UnregisterDisplay() {
	if e.disp == nil {
		return
	}
	e.disp.cfg.Buffers = DrawBuffers{}
	e.disp = nil
}

// RegisterPointer adds an absolute pointer input.
func (e *Engine) RegisterPointer(r PointerReader) (*Pointer, error) {
	if r == nil {
		return nil, errors.New("nil pointer reader")
	}
	p := &Pointer{eng: e, reader: r}
	e.pointers = append(e.pointers, p)
	return p, nil
}

func (e *Engine) Display() *Display { return e.disp }

// Screen returns the active screen, or nil before a display is registered.
func (e *Engine) Screen() *Screen {
	if e.disp == nil {
		return nil
	}
	return e.disp.screen
}

// LoadScreen makes s the active screen and schedules a full redraw.
func (e *Engine) LoadScreen(s *Screen) {
	if e.disp == nil || s == nil {
		return
	}
	e.disp.screen = s
	e.disp.InvalidateAll()
}

// Invalidate marks a region of the display for redraw.
func (e *Engine) Invalidate(a model.Area) {
	if e.disp != nil {
		e.disp.Invalidate(a)
	}
}

// AddTimer runs fn from Handler every periodMS milliseconds of engine time.
func (e *Engine) AddTimer(periodMS uint32, fn func(t *Timer)) *Timer {
	t := &Timer{eng: e, Period: periodMS, last: e.TickGet(), fn: fn}
	e.timers = append(e.timers, t)
	return t
}

// Handler is the per-frame processing entry point: it reads inputs, runs due
// timers and redraws invalidated regions through the display's Flusher.
func (e *Engine) Handler() {
	start := time.Now()

	for _, p := range e.pointers {
		p.read()
	}
	e.runTimers()
	if e.disp != nil {
		e.disp.refresh()
	}
	e.Frames++
	e.Last.HandlerMS = float64(time.Since(start).Microseconds()) / 1000.0
}

func (e *Engine) runTimers() {
	now := e.TickGet()
	for _, t := range append([]*Timer(nil), e.timers...) {
		if t.deleted || t.Paused || now-t.last < t.Period {
			continue
		}
		t.last = now
		t.fn(t)
	}
	live := e.timers[:0]
	for _, t := range e.timers {
		if !t.deleted {
			live = append(live, t)
		}
	}
	e.timers = live
}

// Timer is a periodic callback on engine time.
type Timer struct {
	eng     *Engine
	Period  uint32
	Paused  bool
	last    uint32
	fn      func(t *Timer)
	deleted bool
}

func (t *Timer) Engine() *Engine { return t.eng }
func (t *Timer) Del()            { t.deleted = true }

// Pointer is a registered pointer input.
type Pointer struct {
	eng     *Engine
	reader  PointerReader
	Last    PointerData
	pressed Pressable
}

func (p *Pointer) read() {
	var data PointerData
	data.Point = p.Last.Point
	p.reader.ReadPointer(&data)

	scr := p.eng.Screen()
	switch {
	case data.State == Pressed && p.Last.State == Released:
		if scr != nil {
			p.pressed = scr.pressableAt(data.Point)
		}
		if p.pressed != nil {
			p.pressed.Press()
		}
	case data.State == Released && p.Last.State == Pressed:
		if p.pressed != nil {
			p.pressed.Release(p.Last.Point.In(p.pressed.Bounds()))
			p.pressed = nil
		}
	}
	p.Last = data
}
