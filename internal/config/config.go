package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SPI struct {
	Dev     string `yaml:"dev"`      // spireg name, e.g. SPI0.0
	DCPin   string `yaml:"dc_pin"`   // e.g. GPIO25
	SpeedHz int    `yaml:"speed_hz"` // e.g. 8000000
	Driver  string `yaml:"driver"`   // "ssd1306" | "nrzled" | "console"

	// Serpentine reverses odd rows of nrzled matrices.
	Serpentine bool `yaml:"serpentine,omitempty"`
}

type Touch struct {
	I2CBus string `yaml:"i2c_bus"`
	Addr   uint16 `yaml:"addr"`
	PollMs int    `yaml:"poll_ms"`
}

type Fbdev struct {
	Dev      string `yaml:"dev"`       // e.g. /dev/fb0
	TouchDev string `yaml:"touch_dev"` // e.g. /dev/input/event0, empty to search
}

type Config struct {
	Sink     string `yaml:"sink"`     // "sim" | "preview" | "fbdev" | "sdl" | "spi"
	Platform string `yaml:"platform"` // "hosted" | "rtos"
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`

	LineCount      int  `yaml:"line_count"`
	DoubleBuffer   bool `yaml:"double_buffer"`
	ChunkPixels    int  `yaml:"chunk_pixels"`
	BufferAlign    int  `yaml:"buffer_align"`
	MaxBufferBytes int  `yaml:"max_buffer_bytes"`
	TickMs         int  `yaml:"tick_ms"`
	DriveMs        int  `yaml:"drive_ms"`

	Demo     string `yaml:"demo"` // "widgets" | "stress"
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	SPI   SPI   `yaml:"spi,omitempty"`
	Touch Touch `yaml:"touch,omitempty"`
	Fbdev Fbdev `yaml:"fbdev,omitempty"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
