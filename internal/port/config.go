package port

import (
	"errors"
	"fmt"
	"time"
)

const (
	DFLT_CHUNK_PIXELS = 8192
	DFLT_BUFFER_ALIGN = 32
	DFLT_TICK_PERIOD  = 10 * time.Millisecond
	DFLT_DRIVE_PERIOD = 10 * time.Millisecond
)

var (
	ErrAllocation     = errors.New("frame buffer allocation failed")
	ErrNoSink         = errors.New("no pixel sink")
	ErrAlreadyStarted = errors.New("already started")
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrNotInitialized = errors.New("port not initialized")
)

// Config tunes buffer sizing, transfer chunking and scheduling.
// Zero values select the defaults.
type Config struct {
	// LineCount is the height of a draw buffer in display lines.
	// 0 means half the display height.
	LineCount int
	// DoubleBuffer allocates a second draw buffer so rendering overlaps flushing.
	DoubleBuffer bool
	// ChunkPixels caps a single WritePixels call.
	ChunkPixels int
	// BufferAlign is the byte alignment of each draw buffer. Power of two.
	BufferAlign int
	// MaxBufferBytes bounds the total draw buffer memory. 0 means unbounded.
	MaxBufferBytes int

	TickPeriod  time.Duration
	DrivePeriod time.Duration

	// Platform selects the scheduling driver: "hosted" or "rtos".
	Platform string
}

func (c Config) withDefaults() Config {
	if c.ChunkPixels <= 0 {
		c.ChunkPixels = DFLT_CHUNK_PIXELS
	}
	if c.BufferAlign <= 0 {
		c.BufferAlign = DFLT_BUFFER_ALIGN
	}
	if c.TickPeriod <= 0 {
		c.TickPeriod = DFLT_TICK_PERIOD
	}
	if c.DrivePeriod <= 0 {
		c.DrivePeriod = DFLT_DRIVE_PERIOD
	}
	if c.Platform == "" {
		c.Platform = PlatformHosted
	}
	return c
}

func (c Config) validate() error {
	if c.BufferAlign&(c.BufferAlign-1) != 0 {
		return fmt.Errorf("buffer alignment %d is not a power of two", c.BufferAlign)
	}
	if c.TickPeriod < time.Millisecond {
		return fmt.Errorf("tick period %v: %w", c.TickPeriod, ErrInvalidPeriod)
	}
	return nil
}

// lines resolves the draw buffer height for a display of the given height.
func (c Config) lines(height int) int {
	n := c.LineCount
	if n <= 0 {
		n = height / 2
	}
	if n > height {
		n = height
	}
	if n < 1 {
		n = 1
	}
	return n
}
