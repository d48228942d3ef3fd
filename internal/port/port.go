package port

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-panelport/internal/render"
)

// Port owns the engine, the adapter and the scheduler of one display.
type Port struct {
	eng   *render.Engine
	adp   *Adapter
	sched *Scheduler
	sink  Sink

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	closed  bool
}

type Option func(*options)

type options struct {
	plat Platform
	eng  *render.Engine
}

// WithPlatform replaces the platform named by Config.Platform.
func WithPlatform(p Platform) Option { return func(o *options) { o.plat = p } }

// WithEngine supplies the engine instead of a fresh one.
func WithEngine(e *render.Engine) Option { return func(o *options) { o.eng = e } }

// Initialize allocates the draw buffers for sink and registers the display and
// pointer with the engine. Nothing runs until Start.
func Initialize(sink Sink, cfg Config, opts ...Option) (*Port, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.eng == nil {
		o.eng = render.NewEngine()
	}

	adp, err := NewAdapter(sink, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if err := adp.Init(o.eng); err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	sched, err := NewScheduler(o.plat, o.eng, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return &Port{eng: o.eng, adp: adp, sched: sched, sink: sink}, nil
}

// Start launches the time-base and the drive loop. They run until ctx is done
// or Shutdown is called.
func (p *Port) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrNotInitialized
	}
	if p.started {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := p.sched.Start(ctx); err != nil {
		cancel()
		p.sched.Wait()
		return fmt.Errorf("start %s scheduler: %w", p.sched.Platform().Name(), err)
	}
	p.cancel = cancel
	p.started = true
	log.Info().Str("platform", p.sched.Platform().Name()).Msg("display port running")
	return nil
}

// Lock takes the guard shared with the drive loop.
func (p *Port) Lock() bool { return p.sched.Lock() }
func (p *Port) Unlock()    { p.sched.Unlock() }

// Acquire blocks until the guard is held and returns the token giving access
// to the scene graph. The caller must Release it.
func (p *Port) Acquire() *Guard {
	p.sched.Lock()
	g := &Guard{port: p}
	g.held.Store(true)
	return g
}

// Do runs fn while holding the guard.
func (p *Port) Do(fn func(g *Guard)) {
	g := p.Acquire()
	defer g.Release()
	fn(g)
}

// Shutdown stops both scheduling contexts, waits for them, drops the draw
// buffers and closes the sink if it is an io.Closer. Safe to call more than once.
func (p *Port) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.cancel != nil {
		p.cancel()
	}
	p.sched.Wait()
	p.adp.Release()

	s := p.adp.Stats()
	log.Info().
		Uint32("tick", p.eng.TickGet()).
		Uint64("flushes", s.Flushes).
		Uint64("chunks", s.Chunks).
		Msg("display port stopped")

	if c, ok := p.sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close sink: %w", err)
		}
	}
	return nil
}

// PortStats extends the adapter counters with the engine clock.
type PortStats struct {
	Stats
	Tick uint32
}

// Stats may be called without the guard.
func (p *Port) Stats() PortStats {
	return PortStats{
		Stats: p.adp.Stats(),
		Tick:  p.eng.TickGet(),
	}
}

func (p *Port) Adapter() *Adapter { return p.adp }

// Guard is proof that the caller holds the port guard.
type Guard struct {
	port *Port
	held atomic.Bool
}

// Engine returns the engine. It panics once the guard is released.
func (g *Guard) Engine() *render.Engine {
	if !g.held.Load() {
		panic("port: guard used after release")
	}
	return g.port.eng
}

func (g *Guard) Screen() *render.Screen { return g.Engine().Screen() }

// Frames reports how many Handler calls have completed.
func (g *Guard) Frames() uint64 { return g.Engine().Frames }

// Release gives the guard back. Releasing twice is a no-op.
func (g *Guard) Release() {
	if g.held.CompareAndSwap(true, false) {
		g.port.sched.Unlock()
	}
}
