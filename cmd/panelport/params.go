package main

import (
	"time"

	"github.com/coreman2200/funtimes-panelport/internal/config"
	"github.com/coreman2200/funtimes-panelport/internal/port"
)

type flagValues struct {
	sink, platform, demo, addr, logLevel string
	width, height, lineCount             int
	chunkPixels, tickMs, driveMs         int
	doubleBuffer                         bool
}

// effective merges flags with config.yaml. Non-zero config values win.
func effective(cfg *config.Config, f flagValues) config.Config {
	e := *cfg
	pick := func(c *string, flag string) {
		if *c == "" {
			*c = flag
		}
	}
	pickInt := func(c *int, flag int) {
		if *c == 0 {
			*c = flag
		}
	}
	pick(&e.Sink, f.sink)
	pick(&e.Platform, f.platform)
	pick(&e.Demo, f.demo)
	pick(&e.Addr, f.addr)
	pick(&e.LogLevel, f.logLevel)
	pickInt(&e.Width, f.width)
	pickInt(&e.Height, f.height)
	pickInt(&e.LineCount, f.lineCount)
	pickInt(&e.ChunkPixels, f.chunkPixels)
	pickInt(&e.TickMs, f.tickMs)
	pickInt(&e.DriveMs, f.driveMs)
	e.DoubleBuffer = e.DoubleBuffer || f.doubleBuffer
	return e
}

func portConfig(e config.Config) port.Config {
	return port.Config{
		LineCount:      e.LineCount,
		DoubleBuffer:   e.DoubleBuffer,
		ChunkPixels:    e.ChunkPixels,
		BufferAlign:    e.BufferAlign,
		MaxBufferBytes: e.MaxBufferBytes,
		TickPeriod:     time.Duration(e.TickMs) * time.Millisecond,
		DrivePeriod:    time.Duration(e.DriveMs) * time.Millisecond,
		Platform:       e.Platform,
	}
}
