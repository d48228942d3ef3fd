package sim_test

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-panelport/internal/port"
	"github.com/coreman2200/funtimes-panelport/internal/render/scenes/widgets"
	"github.com/coreman2200/funtimes-panelport/internal/sink/sim"
	"github.com/coreman2200/funtimes-panelport/model"
)

func TestWindowedWrites(t *testing.T) {
	s := sim.New(8, 4)
	var flushed []image.Rectangle
	s.OnFlush = func(r image.Rectangle, px *image.RGBA) {
		flushed = append(flushed, r)
		assert.Equal(t, r, px.Rect)
	}

	s.StartWrite()
	s.SetAddrWindow(2, 1, 3, 2)
	s.WritePixels([]model.Color{model.Red, model.Red, model.Red, model.Blue})
	s.WritePixels([]model.Color{model.Blue, model.Blue, model.Green}) // last pixel falls outside the window
	s.EndWrite()

	assert.Equal(t, model.Red, s.At(2, 1))
	assert.Equal(t, model.Red, s.At(4, 1))
	assert.Equal(t, model.Blue, s.At(2, 2))
	assert.Equal(t, model.Blue, s.At(4, 2))
	assert.Equal(t, model.Black, s.At(5, 2))
	assert.Equal(t, []image.Rectangle{image.Rect(2, 1, 5, 3)}, flushed)
	assert.Equal(t, 2, s.Transfers)
}

func TestTouchInjection(t *testing.T) {
	s := sim.New(320, 240)
	_, _, touched := s.GetTouch()
	assert.False(t, touched)

	s.Touch(150, 75)
	x, y, touched := s.GetTouch()
	assert.True(t, touched)
	assert.Equal(t, 150, x)
	assert.Equal(t, 75, y)

	s.Release()
	_, _, touched = s.GetTouch()
	assert.False(t, touched)
}

func TestWidgetsThroughPort(t *testing.T) {
	s := sim.New(320, 240)
	p, err := port.Initialize(s, port.Config{LineCount: 40, TickPeriod: time.Millisecond, DrivePeriod: time.Millisecond})
	require.NoError(t, err)

	scene := widgets.New("widgets")
	p.Do(func(g *port.Guard) {
		g.Engine().LoadScreen(scene.Build(g.Engine()))
	})
	require.NoError(t, p.Start(context.Background()))
	defer p.Shutdown()

	// first full frame: six 40 line strips
	require.Eventually(t, func() bool { return p.Stats().Flushes >= 6 }, time.Second, time.Millisecond)

	var center image.Point
	p.Do(func(*port.Guard) { center = scene.Button.Bounds().Min.Add(image.Pt(4, 4)) })
	s.Touch(center.X, center.Y)
	require.Eventually(t, func() bool {
		pressed := false
		p.Do(func(*port.Guard) { pressed = scene.Button.Pressed() })
		return pressed
	}, time.Second, time.Millisecond)
	s.Release()

	require.Eventually(t, func() bool {
		n := 0
		p.Do(func(*port.Guard) { n = scene.Count })
		return n == 1
	}, time.Second, time.Millisecond)

	var swatch image.Rectangle
	p.Do(func(*port.Guard) { swatch = scene.Swatch.Bounds() })
	require.Eventually(t, func() bool {
		return s.At(swatch.Min.X+1, swatch.Min.Y+1) == model.Green
	}, time.Second, time.Millisecond)
}
