package fbdev

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-panelport/model"
)

func TestWrite16bpp(t *testing.T) {
	mem := make([]byte, 8*2*4)
	s, err := newSink(mem, 8, 4, 16, RGB565)
	require.NoError(t, err)

	s.StartWrite()
	s.SetAddrWindow(6, 1, 2, 2)
	s.WritePixels([]model.Color{model.Red, model.Green, model.Blue, model.White})
	s.EndWrite()

	px := func(x, y int) model.Color { return model.Color(binary.LittleEndian.Uint16(mem[y*16+x*2:])) }
	assert.Equal(t, model.Red, px(6, 1))
	assert.Equal(t, model.Green, px(7, 1))
	assert.Equal(t, model.Blue, px(6, 2))
	assert.Equal(t, model.White, px(7, 2))
	assert.Equal(t, model.Black, px(5, 1))
}

func TestWrite32bppWithPaddedStride(t *testing.T) {
	const stride = 4*4 + 8
	mem := make([]byte, stride*2)
	s, err := newSink(mem, 4, 2, stride, ARGB8888)
	require.NoError(t, err)

	s.SetAddrWindow(0, 1, 1, 1)
	s.WritePixels([]model.Color{model.Red})

	assert.Equal(t, []byte{0x00, 0x00, 0xff, 0xff}, mem[stride:stride+4])
}

func TestWrite32bppHonoursChannelOffsets(t *testing.T) {
	for _, tc := range []struct {
		name string
		f    Format
		want []byte
	}{
		{"xrgb", XRGB8888, []byte{0x00, 0x00, 0xff, 0x00}},
		{"argb", ARGB8888, []byte{0x00, 0x00, 0xff, 0xff}},
		{"abgr", Format{BPP: 32, Red: Channel{0, 8}, Green: Channel{8, 8}, Blue: Channel{16, 8}, Alpha: Channel{24, 8}}, []byte{0xff, 0x00, 0x00, 0xff}},
		{"rgbx", Format{BPP: 32, Red: Channel{24, 8}, Green: Channel{16, 8}, Blue: Channel{8, 8}}, []byte{0x00, 0x00, 0x00, 0xff}},
	} {
		mem := make([]byte, 4*4)
		s, err := newSink(mem, 2, 2, 8, tc.f)
		require.NoError(t, err, tc.name)
		s.SetAddrWindow(1, 0, 1, 1)
		s.WritePixels([]model.Color{model.Red})
		assert.Equal(t, tc.want, mem[4:8], tc.name)
	}
}

func TestRejectsUnsupportedFormats(t *testing.T) {
	_, err := newSink(make([]byte, 64), 4, 4, 4, Format{BPP: 8})
	assert.ErrorIs(t, err, ErrUnsupported)

	// BGR565
	_, err = newSink(make([]byte, 64), 4, 4, 8, Format{BPP: 16, Red: Channel{0, 5}, Green: Channel{5, 6}, Blue: Channel{11, 5}})
	assert.ErrorIs(t, err, ErrUnsupported)

	// 10 bit channels
	_, err = newSink(make([]byte, 64), 4, 4, 16, Format{BPP: 32, Red: Channel{20, 10}, Green: Channel{10, 10}, Blue: Channel{0, 10}})
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = newSink(make([]byte, 16), 4, 4, 8, RGB565)
	assert.Error(t, err)
}

func scripted(evs ...event) func() (event, bool) {
	return func() (event, bool) {
		if len(evs) == 0 {
			return event{}, false
		}
		ev := evs[0]
		evs = evs[1:]
		return ev, true
	}
}

func TestTouchCommitsOnSynReport(t *testing.T) {
	var pending []event
	next := func() (event, bool) {
		if len(pending) == 0 {
			return event{}, false
		}
		ev := pending[0]
		pending = pending[1:]
		return ev, true
	}
	tc := newTouch(320, 240, axis{0, 4095}, axis{0, 4095}, next)

	pending = []event{
		{evKey, btnTouch, 1},
		{evAbs, absX, 4095},
		{evAbs, absY, 0},
	}
	_, _, touched := tc.Read()
	assert.False(t, touched, "no SYN_REPORT yet")

	pending = []event{{evSyn, synReport, 0}}
	x, y, touched := tc.Read()
	assert.True(t, touched)
	assert.Equal(t, 319, x)
	assert.Equal(t, 0, y)

	pending = []event{{evAbs, absMTTrackingID, -1}, {evSyn, synReport, 0}}
	x, _, touched = tc.Read()
	assert.False(t, touched)
	assert.Equal(t, 319, x)
}

func TestSinkReadsAttachedTouch(t *testing.T) {
	s, err := newSink(make([]byte, 32), 4, 4, 8, RGB565)
	require.NoError(t, err)
	_, _, touched := s.GetTouch()
	assert.False(t, touched)

	closed := false
	tc := newTouch(4, 4, axis{0, 3}, axis{0, 3}, scripted(
		event{evAbs, absMTTrackingID, 7},
		event{evAbs, absMTPositionX, 2},
		event{evAbs, absMTPositionY, 1},
		event{evSyn, synReport, 0},
	))
	tc.close = func() error { closed = true; return nil }
	s.AttachTouch(tc)

	x, y, touched := s.GetTouch()
	assert.True(t, touched)
	assert.Equal(t, 2, x)
	assert.Equal(t, 1, y)

	require.NoError(t, s.Close())
	assert.True(t, closed)
}
