package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-panelport/internal/config"
	diag "github.com/coreman2200/funtimes-panelport/internal/diagnostics"
	"github.com/coreman2200/funtimes-panelport/internal/port"
	"github.com/coreman2200/funtimes-panelport/internal/sink/fbdev"
	"github.com/coreman2200/funtimes-panelport/internal/sink/sim"
	"github.com/coreman2200/funtimes-panelport/spi"
)

type opened struct {
	sink    port.Sink
	preview *sim.Sink
	// run, when set, must own the main goroutine until ctx is done or quit is called.
	run func(ctx context.Context, quit func())
}

func openSink(ctx context.Context, e config.Config, report func(diag.Diagnostic)) (opened, error) {
	switch e.Sink {
	case "sim":
		return opened{sink: sim.New(e.Width, e.Height)}, nil

	case "preview":
		s := sim.New(e.Width, e.Height)
		return opened{sink: s, preview: s}, nil

	case "fbdev":
		dev := e.Fbdev.Dev
		if dev == "" {
			dev = "/dev/fb0"
		}
		s, err := fbdev.Open(dev)
		if err != nil {
			return opened{}, err
		}
		if t, err := fbdev.OpenTouch(e.Fbdev.TouchDev, s.Width(), s.Height()); err != nil {
			report(diag.FromError(diag.TOUCH_OPEN, err))
		} else {
			s.AttachTouch(t)
		}
		return opened{sink: s}, nil

	case "sdl":
		return openSDL(e.Width, e.Height)

	case "spi":
		if _, err := host.Init(); err != nil {
			return opened{}, fmt.Errorf("periph host init: %w", err)
		}
		p, err := spi.Open(spi.Options{
			Dev:     e.SPI.Dev,
			Driver:  e.SPI.Driver,
			DCPin:   e.SPI.DCPin,
			SpeedHz: e.SPI.SpeedHz,
			Width:   e.Width,
			Height:  e.Height,

			Serpentine: e.SPI.Serpentine,
		})
		if err != nil {
			return opened{}, err
		}
		if p.Spi {
			t, err := spi.OpenTouch(e.Touch.I2CBus, e.Touch.Addr, time.Duration(e.Touch.PollMs)*time.Millisecond)
			if err != nil {
				report(diag.FromError(diag.TOUCH_OPEN, err))
			} else {
				t.Start(ctx)
				p.AttachTouch(t)
			}
		}
		log.Info().Bool("spi", p.Spi).Str("driver", e.SPI.Driver).Msg("periph panel ready")
		return opened{sink: p}, nil
	}
	return opened{}, fmt.Errorf("unknown sink %q", e.Sink)
}
