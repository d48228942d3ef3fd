package port

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-panelport/internal/render"
	"github.com/coreman2200/funtimes-panelport/model"
)

// recSink records every call in order.
type recSink struct {
	w, h   int
	calls  []string
	writes [][]model.Color

	touchX, touchY int
	touched        bool
	closed         bool
}

func (s *recSink) Width() int  { return s.w }
func (s *recSink) Height() int { return s.h }
func (s *recSink) StartWrite() { s.calls = append(s.calls, "start") }
func (s *recSink) EndWrite()   { s.calls = append(s.calls, "end") }
func (s *recSink) SetAddrWindow(x, y, w, h int) {
	s.calls = append(s.calls, fmt.Sprintf("window %d,%d %dx%d", x, y, w, h))
}
func (s *recSink) WritePixels(px []model.Color) {
	s.calls = append(s.calls, fmt.Sprintf("write %d", len(px)))
	s.writes = append(s.writes, px)
}
func (s *recSink) GetTouch() (int, int, bool) { return s.touchX, s.touchY, s.touched }
func (s *recSink) Close() error {
	s.closed = true
	return nil
}

type readyCounter int

func (r *readyCounter) FlushReady() { *r++ }

func TestFlushSingleTransfer(t *testing.T) {
	s := &recSink{w: 320, h: 240}
	a, err := NewAdapter(s, Config{})
	require.NoError(t, err)

	var ready readyCounter
	px := make([]model.Color, 100*80)
	a.Flush(&ready, model.Area{X1: 10, Y1: 20, X2: 109, Y2: 99}, px)

	assert.Equal(t, []string{"start", "window 10,20 100x80", "write 8000", "end"}, s.calls)
	assert.Equal(t, readyCounter(1), ready)

	st := a.Stats()
	assert.Equal(t, uint64(1), st.Flushes)
	assert.Equal(t, uint64(1), st.Chunks)
	assert.Equal(t, uint64(8000), st.Pixels)
}

func TestFlushAtThresholdIsOneWrite(t *testing.T) {
	s := &recSink{w: 128, h: 128}
	a, err := NewAdapter(s, Config{LineCount: 64})
	require.NoError(t, err)

	var ready readyCounter
	a.Flush(&ready, model.Area{X1: 0, Y1: 0, X2: 127, Y2: 63}, make([]model.Color, 8192))
	assert.Equal(t, []string{"start", "window 0,0 128x64", "write 8192", "end"}, s.calls)
	assert.Equal(t, readyCounter(1), ready)
}

func TestFlushChunksLargeArea(t *testing.T) {
	s := &recSink{w: 320, h: 240}
	a, err := NewAdapter(s, Config{LineCount: 120})
	require.NoError(t, err)
	require.Equal(t, 120, a.LineCount())
	require.Len(t, a.Buffers().Buf1, 320*120)

	px := make([]model.Color, 320*200)
	for i := range px {
		px[i] = model.Color(i)
	}
	var ready readyCounter
	a.Flush(&ready, model.Area{X1: 0, Y1: 0, X2: 319, Y2: 199}, px)

	require.Len(t, s.writes, 8)
	off := 0
	for i, w := range s.writes {
		want := DFLT_CHUNK_PIXELS
		if i == 7 {
			want = 64000 - 7*DFLT_CHUNK_PIXELS
		}
		require.Len(t, w, want, "chunk %d", i)
		assert.Equal(t, model.Color(off), w[0], "chunk %d starts at pixel %d", i, off)
		off += len(w)
	}
	assert.Equal(t, 64000, off)
	assert.Equal(t, "start", s.calls[0])
	assert.Equal(t, "window 0,0 320x200", s.calls[1])
	assert.Equal(t, "end", s.calls[len(s.calls)-1])
	assert.Equal(t, readyCounter(1), ready)
	assert.Equal(t, uint64(8), a.Stats().Chunks)
}

func TestFlushCustomChunkSize(t *testing.T) {
	s := &recSink{w: 10, h: 10}
	a, err := NewAdapter(s, Config{ChunkPixels: 30})
	require.NoError(t, err)

	var ready readyCounter
	a.Flush(&ready, model.Area{X1: 0, Y1: 0, X2: 9, Y2: 6}, make([]model.Color, 70))
	assert.Equal(t, []string{"start", "window 0,0 10x7", "write 30", "write 30", "write 10", "end"}, s.calls)
	assert.Equal(t, readyCounter(1), ready)
}

func TestFlushEmptyAreaSignalsOnly(t *testing.T) {
	s := &recSink{w: 320, h: 240}
	a, err := NewAdapter(s, Config{})
	require.NoError(t, err)

	var ready readyCounter
	a.Flush(&ready, model.Area{X1: 5, Y1: 5, X2: 3, Y2: 3}, nil)
	assert.Empty(t, s.calls)
	assert.Equal(t, readyCounter(1), ready)
	assert.Zero(t, a.Stats().Flushes)
}

func TestReadPointer(t *testing.T) {
	s := &recSink{w: 320, h: 240}
	a, err := NewAdapter(s, Config{})
	require.NoError(t, err)

	var d render.PointerData
	a.ReadPointer(&d)
	assert.Equal(t, render.Released, d.State)

	s.touchX, s.touchY, s.touched = 150, 75, true
	a.ReadPointer(&d)
	assert.Equal(t, render.Pressed, d.State)
	assert.Equal(t, image.Pt(150, 75), d.Point)

	// release keeps the last point
	s.touched = false
	a.ReadPointer(&d)
	assert.Equal(t, render.Released, d.State)
	assert.Equal(t, image.Pt(150, 75), d.Point)

	st := a.Stats()
	assert.Equal(t, uint64(3), st.Polls)
	assert.Equal(t, uint64(1), st.Touches)
}

func TestNewAdapterErrors(t *testing.T) {
	_, err := NewAdapter(nil, Config{})
	assert.ErrorIs(t, err, ErrNoSink)

	_, err = NewAdapter(&recSink{w: 0, h: 240}, Config{})
	assert.ErrorIs(t, err, ErrAllocation)

	_, err = NewAdapter(&recSink{w: 320, h: 240}, Config{MaxBufferBytes: 1024})
	assert.ErrorIs(t, err, ErrAllocation)

	_, err = NewAdapter(&recSink{w: 320, h: 240}, Config{BufferAlign: 24})
	assert.Error(t, err)

	_, err = NewAdapter(&recSink{w: 320, h: 240}, Config{TickPeriod: 1})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestBuffersAlignedAndZeroed(t *testing.T) {
	for _, align := range []int{2, 32, 64, 4096} {
		s := &recSink{w: 100, h: 50}
		a, err := NewAdapter(s, Config{DoubleBuffer: true, BufferAlign: align})
		require.NoError(t, err)

		b := a.Buffers()
		require.Len(t, b.Buf1, 100*25)
		require.Len(t, b.Buf2, 100*25)
		assert.True(t, aligned(b.Buf1, align), "buf1 align %d", align)
		assert.True(t, aligned(b.Buf2, align), "buf2 align %d", align)
		assert.Equal(t, len(b.Buf1), cap(b.Buf1))
		for _, c := range b.Buf1 {
			require.Equal(t, model.Color(0), c)
		}
	}
}

func TestSingleBufferByDefault(t *testing.T) {
	a, err := NewAdapter(&recSink{w: 64, h: 64}, Config{})
	require.NoError(t, err)
	assert.Nil(t, a.Buffers().Buf2)
	assert.Equal(t, 32, a.LineCount())
}

func TestInitRegistersDisplayAndPointer(t *testing.T) {
	s := &recSink{w: 40, h: 30, touched: true, touchX: 5, touchY: 6}
	a, err := NewAdapter(s, Config{LineCount: 10})
	require.NoError(t, err)

	eng := render.NewEngine()
	require.NoError(t, a.Init(eng))
	require.NotNil(t, a.Display())
	assert.Equal(t, 40, a.Display().HorRes())
	assert.Equal(t, 30, a.Display().VerRes())

	eng.Display().InvalidateAll()
	eng.Handler()

	// three 10 line strips, each bracketed by start and end
	assert.Len(t, s.writes, 3)
	assert.Equal(t, uint64(3), a.Stats().Flushes)
	assert.Equal(t, uint64(1), a.Stats().Polls)

	// release clears the buffers on the engine side too
	disp := a.Display()
	a.Release()
	assert.Nil(t, disp.Buffers().Buf1)
	assert.Nil(t, eng.Display())
	assert.Nil(t, a.Display())

	// a second engine cannot take the same buffers after release
	assert.ErrorIs(t, a.Init(render.NewEngine()), ErrNotInitialized)
}
