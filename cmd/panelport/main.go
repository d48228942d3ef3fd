package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-panelport/internal/config"
	diag "github.com/coreman2200/funtimes-panelport/internal/diagnostics"
	"github.com/coreman2200/funtimes-panelport/internal/port"
	"github.com/coreman2200/funtimes-panelport/internal/render"
	"github.com/coreman2200/funtimes-panelport/internal/render/scenes/stress"
	"github.com/coreman2200/funtimes-panelport/internal/render/scenes/widgets"
	"github.com/coreman2200/funtimes-panelport/internal/ws"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		sinkName     = flag.String("sink", "preview", "pixel sink: sim | preview | fbdev | sdl | spi")
		platform     = flag.String("platform", port.PlatformHosted, "scheduling platform: hosted | rtos")
		width        = flag.Int("width", 320, "display width (sim, preview, sdl, spi console)")
		height       = flag.Int("height", 240, "display height (sim, preview, sdl, spi console)")
		lineCount    = flag.Int("line-count", 0, "draw buffer height in lines (0 = half the display)")
		doubleBuffer = flag.Bool("double-buffer", false, "allocate a second draw buffer")
		chunkPixels  = flag.Int("chunk-pixels", port.DFLT_CHUNK_PIXELS, "max pixels per sink write")
		tickMs       = flag.Int("tick-ms", 10, "engine time-base period (ms)")
		driveMs      = flag.Int("drive-ms", 10, "drive loop period (ms)")
		demo         = flag.String("demo", "widgets", "demo screen: widgets | stress")
		addr         = flag.String("addr", ":8080", "HTTP listen address (preview)")
		configPath   = flag.String("config", "config.yaml", "path to config.yaml")
		logLevel     = flag.String("log-level", "info", "debug | info | warn | error")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg := &config.Config{}
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	} else {
		cfg = c
	}

	// ---- Effective params (config overrides flags where set) ----
	eff := effective(cfg, flagValues{
		sink: *sinkName, platform: *platform, width: *width, height: *height,
		lineCount: *lineCount, chunkPixels: *chunkPixels, tickMs: *tickMs, driveMs: *driveMs,
		doubleBuffer: *doubleBuffer, demo: *demo, addr: *addr, logLevel: *logLevel,
	})
	if lvl, err := zerolog.ParseLevel(eff.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Sink ----
	var hub *ws.Hub
	report := func(d diag.Diagnostic) {
		if hub != nil {
			hub.PushDiag(d)
			return
		}
		diag.Log(d)
	}
	out, err := openSink(ctx, eff, report)
	if err != nil {
		report(diag.FromError(diag.SINK_OPEN, err))
		log.Fatal().Err(err).Str("sink", eff.Sink).Msg("sink open failed")
	}

	// ---- Port ----
	p, err := port.Initialize(out.sink, portConfig(eff))
	if err != nil {
		report(diag.FromError(diag.PORT_ALLOC, err))
		log.Fatal().Err(err).Msg("display port init failed")
	}

	reg := render.NewRegistry()
	reg.Register(widgets.New("widgets"))
	reg.Register(stress.New("stress"))
	loadDemo := func(name string) bool {
		sc, ok := reg.Get(name)
		if !ok {
			return false
		}
		p.Do(func(g *port.Guard) {
			g.Engine().LoadScreen(sc.Build(g.Engine()))
		})
		log.Info().Str("demo", name).Msg("demo loaded")
		return true
	}
	if !loadDemo(eff.Demo) {
		log.Warn().Str("demo", eff.Demo).Strs("known", reg.List()).Msg("unknown demo; using widgets")
		loadDemo("widgets")
	}

	// ---- Preview server ----
	var srv *http.Server
	if out.preview != nil {
		hub = ws.NewHub(out.preview.Width(), out.preview.Height())
		hub.Touch = out.preview
		hub.Snapshot = out.preview.Snapshot
		hub.Stats = p.Stats
		hub.OnDemo = loadDemo
		hub.ConfigPath, hub.Config = *configPath, cfg
		out.preview.OnFlush = hub.BroadcastRegion

		srv = &http.Server{
			Addr:         eff.Addr,
			Handler:      withCORS(hub.Mux()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", eff.Addr).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("http server crashed")
			}
		}()
	}

	// ---- Run ----
	if err := p.Start(ctx); err != nil {
		report(diag.FromError(diag.PORT_SCHED, err))
		log.Fatal().Err(err).Msg("display port start failed")
	}
	log.Info().
		Str("sink", eff.Sink).
		Str("platform", eff.Platform).
		Int("width", out.sink.Width()).
		Int("height", out.sink.Height()).
		Msg("running")

	if out.run != nil {
		// windowed sinks own the main goroutine until closed
		out.run(ctx, stop)
	} else {
		<-ctx.Done()
	}

	// ---- Graceful shutdown ----
	log.Info().Msg("shutting down")
	if srv != nil {
		_ = srv.Close()
	}
	if err := p.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
