package render

import (
	"image"
	"sort"

	"github.com/coreman2200/funtimes-panelport/model"
)

type PointerState uint8

const (
	Released PointerState = iota
	Pressed
)

func (s PointerState) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// PointerData is filled by a PointerReader on every input read.
// Point is only meaningful while State is Pressed.
type PointerData struct {
	State PointerState
	Point image.Point
}

// FlushReadier is signalled once a flushed buffer may be reused.
type FlushReadier interface {
	FlushReady()
}

// Flusher moves a rendered area to the physical panel. px holds exactly
// area.Count() pixels in row-major order. Implementations must call
// done.FlushReady() once px is no longer needed.
type Flusher interface {
	Flush(done FlushReadier, area model.Area, px []model.Color)
}

// PointerReader reports the current state of an absolute pointer. It must not block.
type PointerReader interface {
	ReadPointer(data *PointerData)
}

// DrawBuffers is one or two equally sized render buffers. Buf2 may be nil.
type DrawBuffers struct {
	Buf1 []model.Color
	Buf2 []model.Color
}

type DisplayConfig struct {
	HorRes  int
	VerRes  int
	Buffers DrawBuffers
	Flusher Flusher
}

// Scene builds one of the built-in demo screens.
type Scene interface {
	Name() string
	Build(e *Engine) *Screen
}

type Registry struct{ m map[string]Scene }

func NewRegistry() *Registry { return &Registry{m: map[string]Scene{}} }

func (r *Registry) Register(s Scene) {
	if s == nil {
		return
	}
	r.m[s.Name()] = s
}

func (r *Registry) Get(name string) (Scene, bool) { s, ok := r.m[name]; return s, ok }
func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
