package port

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Engine is what the scheduler drives: a clock to advance and a per-frame entry point.
type Engine interface {
	TickInc(ms uint32)
	Handler()
}

// Scheduler runs the engine time-base and drive loop on a Platform and exposes
// the guard the drive loop holds around every Handler call.
type Scheduler struct {
	plat Platform
	eng  Engine

	tick  time.Duration
	drive time.Duration
	// sub-millisecond remainder of elapsed ticks; time-base context only
	carry time.Duration
}

func NewScheduler(plat Platform, eng Engine, cfg Config) (*Scheduler, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if plat == nil {
		var err error
		if plat, err = NewPlatform(cfg.Platform); err != nil {
			return nil, err
		}
	}
	return &Scheduler{
		plat:  plat,
		eng:   eng,
		tick:  cfg.TickPeriod,
		drive: cfg.DrivePeriod,
	}, nil
}

// advance moves the engine clock by one tick period, carrying fractions of a
// millisecond into the next tick.
func (s *Scheduler) advance() {
	s.carry += s.tick
	ms := s.carry / time.Millisecond
	s.carry -= ms * time.Millisecond
	if ms > 0 {
		s.eng.TickInc(uint32(ms))
	}
}

// StartTimeBase advances the engine clock by the tick period, every tick period.
// It does not take the guard.
func (s *Scheduler) StartTimeBase(ctx context.Context) error {
	if err := s.plat.StartTimeBase(ctx, s.tick, s.advance); err != nil {
		return err
	}
	log.Debug().Str("platform", s.plat.Name()).Dur("period", s.tick).Msg("time-base started")
	return nil
}

// StartDriveLoop calls the engine Handler with the guard held, once per drive period.
func (s *Scheduler) StartDriveLoop(ctx context.Context) error {
	if err := s.plat.StartDriveLoop(ctx, s.drive, s.eng.Handler); err != nil {
		return err
	}
	log.Debug().Str("platform", s.plat.Name()).Dur("period", s.drive).Msg("drive loop started")
	return nil
}

// Start starts the time-base, then the drive loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.StartTimeBase(ctx); err != nil {
		return err
	}
	return s.StartDriveLoop(ctx)
}

// Lock blocks until the guard is free. Never call it from engine callbacks:
// they already run under the guard.
func (s *Scheduler) Lock() bool { return s.plat.Lock() }
func (s *Scheduler) Unlock()    { s.plat.Unlock() }

// Wait blocks until both contexts have exited after their ctx is done.
func (s *Scheduler) Wait() { s.plat.Wait() }

func (s *Scheduler) Platform() Platform { return s.plat }
