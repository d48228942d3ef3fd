package port

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	PlatformHosted = "hosted"
	PlatformRTOS   = "rtos"
)

// Platform realizes the two execution contexts of the port and the guard
// shared between the drive loop and application code.
type Platform interface {
	Name() string
	// StartTimeBase calls tick every period from its own timer context.
	StartTimeBase(ctx context.Context, period time.Duration, tick func()) error
	// StartDriveLoop calls process with the guard held, then waits period, until ctx ends.
	StartDriveLoop(ctx context.Context, period time.Duration, process func()) error
	// Lock blocks until the guard is held.
	Lock() bool
	// Unlock releases the guard. It is a no-op when the guard is free.
	Unlock()
	// Wait blocks until every started context has exited.
	Wait()
}

func NewPlatform(name string) (Platform, error) {
	switch name {
	case "", PlatformHosted:
		return NewHosted(), nil
	case PlatformRTOS:
		return NewRTOS(), nil
	}
	return nil, fmt.Errorf("unknown platform %q", name)
}

type starts struct {
	timeBase atomic.Bool
	drive    atomic.Bool
}

func (s *starts) claim(flag *atomic.Bool, period time.Duration) error {
	if period <= 0 {
		return ErrInvalidPeriod
	}
	if !flag.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	return nil
}

// Hosted runs the time-base on a ticker goroutine and the drive loop on a
// second goroutine, guarded by a mutex. This is the desktop simulator model.
type Hosted struct {
	mu   sync.Mutex
	held atomic.Bool
	wg   sync.WaitGroup
	starts
}

func NewHosted() *Hosted { return &Hosted{} }

func (h *Hosted) Name() string { return PlatformHosted }

func (h *Hosted) StartTimeBase(ctx context.Context, period time.Duration, tick func()) error {
	if err := h.claim(&h.timeBase, period); err != nil {
		return err
	}
	ticker := time.NewTicker(period)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
	return nil
}

func (h *Hosted) StartDriveLoop(ctx context.Context, period time.Duration, process func()) error {
	if err := h.claim(&h.drive, period); err != nil {
		return err
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			if h.Lock() {
				process()
				h.Unlock()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(period):
			}
		}
	}()
	return nil
}

func (h *Hosted) Lock() bool {
	h.mu.Lock()
	h.held.Store(true)
	return true
}

// Unlock releases the guard. Unlocking a free guard is a no-op, as on RTOS.
func (h *Hosted) Unlock() {
	if h.held.CompareAndSwap(true, false) {
		h.mu.Unlock()
	}
}

func (h *Hosted) Wait() { h.wg.Wait() }

// RTOS mirrors a microcontroller port: a re-arming periodic timer callback for
// the time-base, a task that delays between iterations, and a binary semaphore.
type RTOS struct {
	sem chan struct{}
	wg  sync.WaitGroup
	starts
}

func NewRTOS() *RTOS {
	r := &RTOS{sem: make(chan struct{}, 1)}
	r.sem <- struct{}{}
	return r
}

func (r *RTOS) Name() string { return PlatformRTOS }

func (r *RTOS) StartTimeBase(ctx context.Context, period time.Duration, tick func()) error {
	if err := r.claim(&r.timeBase, period); err != nil {
		return err
	}
	var (
		mu      sync.Mutex
		stopped bool
		t       *time.Timer
	)
	// held until t is assigned so an early first fire sees it
	mu.Lock()
	t = time.AfterFunc(period, func() {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		tick()
		t.Reset(period)
	})
	mu.Unlock()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		<-ctx.Done()
		mu.Lock()
		stopped = true
		t.Stop()
		mu.Unlock()
	}()
	return nil
}

func (r *RTOS) StartDriveLoop(ctx context.Context, period time.Duration, process func()) error {
	if err := r.claim(&r.drive, period); err != nil {
		return err
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for ctx.Err() == nil {
			if r.Lock() {
				process()
				r.Unlock()
			}
			time.Sleep(period)
		}
	}()
	return nil
}

// Lock takes the semaphore, waiting forever.
func (r *RTOS) Lock() bool {
	<-r.sem
	return true
}

// Unlock gives the semaphore back. Giving a semaphore that is already free is a no-op.
func (r *RTOS) Unlock() {
	select {
	case r.sem <- struct{}{}:
	default:
	}
}

func (r *RTOS) Wait() { r.wg.Wait() }
