package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
sink: fbdev
platform: rtos
width: 320
height: 240
line_count: 120
double_buffer: true
chunk_pixels: 4096
tick_ms: 10
demo: stress
fbdev:
  dev: /dev/fb1
touch:
  i2c_bus: "1"
  addr: 56
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fbdev", c.Sink)
	assert.Equal(t, "rtos", c.Platform)
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 120, c.LineCount)
	assert.True(t, c.DoubleBuffer)
	assert.Equal(t, 4096, c.ChunkPixels)
	assert.Equal(t, "stress", c.Demo)
	assert.Equal(t, "/dev/fb1", c.Fbdev.Dev)
	assert.Equal(t, uint16(0x38), c.Touch.Addr)
	assert.Zero(t, c.DriveMs)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := &Config{Sink: "spi", Width: 128, Height: 64, SPI: SPI{Driver: "ssd1306", DCPin: "GPIO25"}}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
