package spi

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

const (
	FT6X36_ADDR     = 0x38
	DFLT_TOUCH_POLL = 10 * time.Millisecond

	ft6x36RegStatus = 0x02
)

// Touch polls an FT6x36 capacitive controller over I2C and caches the latest
// point so GetTouch never touches the bus.
type Touch struct {
	dev    *i2c.Dev
	bus    i2c.BusCloser
	period time.Duration

	// x<<16 | y, with bit 63 set while touched
	state atomic.Uint64

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewTouch(bus i2c.Bus, addr uint16, period time.Duration) *Touch {
	if addr == 0 {
		addr = FT6X36_ADDR
	}
	if period <= 0 {
		period = DFLT_TOUCH_POLL
	}
	return &Touch{dev: &i2c.Dev{Bus: bus, Addr: addr}, period: period}
}

// OpenTouch opens an I2C bus by name ("" for the first one).
func OpenTouch(busName string, addr uint16, period time.Duration) (*Touch, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", busName, err)
	}
	t := NewTouch(bus, addr, period)
	t.bus = bus
	return t, nil
}

// Poll reads one sample from the controller and caches it.
func (t *Touch) Poll() error {
	var r [5]byte
	if err := t.dev.Tx([]byte{ft6x36RegStatus}, r[:]); err != nil {
		return err
	}
	n := r[0] & 0x0F
	if n == 0 || n > 2 {
		t.state.Store(t.state.Load() &^ (1 << 63))
		return nil
	}
	x := uint64(r[1]&0x0F)<<8 | uint64(r[2])
	y := uint64(r[3]&0x0F)<<8 | uint64(r[4])
	t.state.Store(1<<63 | x<<16 | y)
	return nil
}

func (t *Touch) GetTouch() (int, int, bool) {
	s := t.state.Load()
	return int(s >> 16 & 0xFFFF), int(s & 0xFFFF), s&(1<<63) != 0
}

// Start polls every period until ctx is done or Close is called.
func (t *Touch) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.wg.Add(1)
	go t.loop(ctx)
}

func (t *Touch) loop(ctx context.Context) {
	defer t.wg.Done()
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	failing := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := t.Poll()
			if err != nil && !failing {
				log.Warn().Err(err).Msg("touch poll failed")
			}
			failing = err != nil
		}
	}
}

func (t *Touch) Close() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	if t.bus != nil {
		return t.bus.Close()
	}
	return nil
}
