//go:build !linux

package fbdev

func Open(dev string) (*Sink, error) { return nil, ErrUnsupported }

func OpenTouch(dev string, w, h int) (*Touch, error) { return nil, ErrUnsupported }
