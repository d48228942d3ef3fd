package port

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-panelport/internal/render"
	"github.com/coreman2200/funtimes-panelport/model"
)

// Sink is an initialized display+touch peripheral.
type Sink interface {
	Width() int
	Height() int
	// StartWrite and EndWrite bracket one bulk transfer.
	StartWrite()
	EndWrite()
	// SetAddrWindow selects the region the following pixels fill, row by row.
	SetAddrWindow(x, y, w, h int)
	WritePixels(px []model.Color)
	// GetTouch reports the latest touch point. It must not block.
	GetTouch() (x, y int, touched bool)
}

// Stats counts adapter activity since initialization.
type Stats struct {
	Flushes uint64
	Chunks  uint64
	Pixels  uint64
	Polls   uint64
	Touches uint64
}

// Adapter binds a render.Engine to a Sink. It is the engine's Flusher and PointerReader.
type Adapter struct {
	sink  Sink
	cfg   Config
	lines int
	bufs  render.DrawBuffers

	eng  *render.Engine
	disp *render.Display
	ptr  *render.Pointer

	flushes, chunks, pixels, polls, touches atomic.Uint64
}

// NewAdapter allocates the draw buffers for sink. Allocation failure is fatal:
// without a frame buffer nothing can be rendered.
func NewAdapter(sink Sink, cfg Config) (*Adapter, error) {
	if sink == nil {
		return nil, ErrNoSink
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := &Adapter{sink: sink, cfg: cfg}

	w, h := sink.Width(), sink.Height()
	a.lines = cfg.lines(h)
	n := w * a.lines
	count := 1
	if cfg.DoubleBuffer {
		count = 2
	}
	if cfg.MaxBufferBytes > 0 && n*pixelBytes*count > cfg.MaxBufferBytes {
		return nil, fmt.Errorf("%d x %d lines x %d buffers exceeds %d bytes: %w", w, a.lines, count, cfg.MaxBufferBytes, ErrAllocation)
	}

	var err error
	if a.bufs.Buf1, err = allocAligned(n, cfg.BufferAlign); err != nil {
		return nil, fmt.Errorf("buf1 %dx%d: %w", w, a.lines, err)
	}
	if cfg.DoubleBuffer {
		if a.bufs.Buf2, err = allocAligned(n, cfg.BufferAlign); err != nil {
			return nil, fmt.Errorf("buf2 %dx%d: %w", w, a.lines, err)
		}
	}
	return a, nil
}

// Init registers the display and pointer devices with eng.
func (a *Adapter) Init(eng *render.Engine) error {
	if a.bufs.Buf1 == nil {
		return ErrNotInitialized
	}
	disp, err := eng.RegisterDisplay(render.DisplayConfig{
		HorRes:  a.sink.Width(),
		VerRes:  a.sink.Height(),
		Buffers: a.bufs,
		Flusher: a,
	})
	if err != nil {
		return fmt.Errorf("register display: %w", err)
	}
	ptr, err := eng.RegisterPointer(a)
	if err != nil {
		return fmt.Errorf("register pointer: %w", err)
	}
	a.eng, a.disp, a.ptr = eng, disp, ptr

	log.Info().
		Int("width", a.sink.Width()).
		Int("height", a.sink.Height()).
		Int("lines", a.lines).
		Bool("double", a.bufs.Buf2 != nil).
		Int("chunk_px", a.cfg.ChunkPixels).
		Msg("display port initialized")
	return nil
}

// Flush transfers area to the sink. Transfers above ChunkPixels are split into
// sequential writes of at most ChunkPixels each: some sink backends corrupt
// pixels on larger bulk copies.
func (a *Adapter) Flush(done render.FlushReadier, area model.Area, px []model.Color) {
	if area.Empty() {
		done.FlushReady()
		return
	}
	w, h := area.Width(), area.Height()
	n := w * h

	a.sink.StartWrite()
	a.sink.SetAddrWindow(area.X1, area.Y1, w, h)
	if n > a.cfg.ChunkPixels {
		for off := 0; off < n; off += a.cfg.ChunkPixels {
			end := off + a.cfg.ChunkPixels
			if end > n {
				end = n
			}
			a.sink.WritePixels(px[off:end])
			a.chunks.Add(1)
		}
	} else {
		a.sink.WritePixels(px[:n])
		a.chunks.Add(1)
	}
	a.sink.EndWrite()

	a.flushes.Add(1)
	a.pixels.Add(uint64(n))
	log.Debug().Stringer("area", area).Int("px", n).Msg("flush")
	done.FlushReady()
}

// ReadPointer reports the sink's touch state. Released leaves Point untouched.
func (a *Adapter) ReadPointer(data *render.PointerData) {
	a.polls.Add(1)
	x, y, touched := a.sink.GetTouch()
	if !touched {
		data.State = render.Released
		return
	}
	a.touches.Add(1)
	data.State = render.Pressed
	data.Point = image.Pt(x, y)
}

func (a *Adapter) Buffers() render.DrawBuffers { return a.bufs }
func (a *Adapter) LineCount() int              { return a.lines }
func (a *Adapter) Display() *render.Display    { return a.disp }

func (a *Adapter) Stats() Stats {
	return Stats{
		Flushes: a.flushes.Load(),
		Chunks:  a.chunks.Load(),
		Pixels:  a.pixels.Load(),
		Polls:   a.polls.Load(),
		Touches: a.touches.Load(),
	}
}

// Release unregisters the display from the engine and drops the draw buffers,
// leaving them to the garbage collector. Only valid once the drive loop has stopped.
func (a *Adapter) Release() {
	if a.eng != nil {
		a.eng.UnregisterDisplay()
	}
	a.eng, a.disp = nil, nil
	a.bufs = render.DrawBuffers{}
}
