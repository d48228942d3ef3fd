//go:build sdl

// Package sdlwin shows the display in an SDL2 window and maps the left mouse
// button to touch.
package sdlwin

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/rs/zerolog/log"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/coreman2200/funtimes-panelport/model"
)

// SDL wants its event loop on the main thread.
func init() { runtime.LockOSThread() }

type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	mu    sync.Mutex
	back  *image.RGBA
	win   model.Window
	dirty bool

	touch   image.Point
	touched bool
}

func New(title string, w, h int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	d := &Window{back: image.NewRGBA(image.Rect(0, 0, w, h))}
	var err error
	d.window, err = sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, int32(w), int32(h), sdl.WINDOW_SHOWN)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create window: %w", err)
	}
	d.renderer, err = sdl.CreateRenderer(d.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	d.texture, err = d.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create texture: %w", err)
	}
	return d, nil
}

func (d *Window) Width() int  { return d.back.Rect.Dx() }
func (d *Window) Height() int { return d.back.Rect.Dy() }

func (d *Window) StartWrite() { d.mu.Lock() }
func (d *Window) EndWrite() {
	d.dirty = true
	d.mu.Unlock()
}

// SetAddrWindow and WritePixels run between StartWrite and EndWrite.
func (d *Window) SetAddrWindow(x, y, w, h int) { d.win = model.NewWindow(x, y, w, h) }

func (d *Window) WritePixels(px []model.Color) {
	d.win.Advance(len(px), func(x, y, length, off int) {
		for i := 0; i < length; i++ {
			c := px[off+i].ToNRGBA()
			if (image.Point{X: x + i, Y: y}).In(d.back.Rect) {
				j := d.back.PixOffset(x+i, y)
				d.back.Pix[j], d.back.Pix[j+1], d.back.Pix[j+2], d.back.Pix[j+3] = c.R, c.G, c.B, 0xff
			}
		}
	})
}

func (d *Window) GetTouch() (int, int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touch.X, d.touch.Y, d.touched
}

// Run pumps SDL events and presents the frame until ctx is done or the window
// is closed. It must be called from main.
func (d *Window) Run(ctx context.Context, quit func()) {
	frame := time.NewTicker(16 * time.Millisecond)
	defer frame.Stop()
	for {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch e := ev.(type) {
			case *sdl.QuitEvent:
				quit()
				return
			case *sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
					quit()
					return
				}
			case *sdl.MouseButtonEvent:
				if e.Button == sdl.BUTTON_LEFT {
					d.setTouch(int(e.X), int(e.Y), e.Type == sdl.MOUSEBUTTONDOWN)
				}
			case *sdl.MouseMotionEvent:
				if e.State&sdl.ButtonLMask() != 0 {
					d.setTouch(int(e.X), int(e.Y), true)
				}
			}
		}
		if err := d.present(); err != nil {
			log.Warn().Err(err).Msg("sdl present")
		}
		select {
		case <-ctx.Done():
			return
		case <-frame.C:
		}
	}
}

func (d *Window) setTouch(x, y int, down bool) {
	d.mu.Lock()
	d.touch, d.touched = image.Pt(x, y), down
	d.mu.Unlock()
}

func (d *Window) present() error {
	d.mu.Lock()
	if !d.dirty {
		d.mu.Unlock()
		return nil
	}
	d.dirty = false
	err := d.texture.Update(nil, unsafe.Pointer(&d.back.Pix[0]), d.back.Stride)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	if err := d.renderer.Clear(); err != nil {
		return err
	}
	if err := d.renderer.Copy(d.texture, nil, nil); err != nil {
		return err
	}
	d.renderer.Present()
	return nil
}

func (d *Window) Close() error {
	if d.texture != nil {
		d.texture.Destroy()
	}
	if d.renderer != nil {
		d.renderer.Destroy()
	}
	if d.window != nil {
		d.window.Destroy()
	}
	sdl.Quit()
	return nil
}
