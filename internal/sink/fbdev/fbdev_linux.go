//go:build linux

package fbdev

import (
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

type fbBitfield struct {
	Offset, Length, MsbRight uint32
}

func (b fbBitfield) channel() Channel { return Channel{Offset: b.Offset, Length: b.Length} }

// linux/fb.h struct fb_var_screeninfo
type fbVarScreenInfo struct {
	Xres, Yres               uint32
	XresVirtual, YresVirtual uint32
	Xoffset, Yoffset         uint32
	BitsPerPixel             uint32
	Grayscale                uint32
	Red, Green, Blue, Transp fbBitfield
	Nonstd, Activate         uint32
	Height, Width            uint32
	AccelFlags, Pixclock     uint32
	LeftMargin, RightMargin  uint32
	UpperMargin, LowerMargin uint32
	HsyncLen, VsyncLen       uint32
	Sync, Vmode              uint32
	Rotate, Colorspace       uint32
	Reserved                 [4]uint32
}

// linux/fb.h struct fb_fix_screeninfo
type fbFixScreenInfo struct {
	ID                            [16]byte
	SmemStart                     uintptr
	SmemLen                       uint32
	Type, TypeAux, Visual         uint32
	Xpanstep, Ypanstep, Ywrapstep uint16
	LineLength                    uint32
	MmioStart                     uintptr
	MmioLen                       uint32
	Accel                         uint32
	Capabilities                  uint16
	Reserved                      [2]uint16
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

// Open maps dev (e.g. /dev/fb0). Only 16 and 32 bit framebuffers are supported.
func Open(dev string) (*Sink, error) {
	fd, err := unix.Open(dev, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	var vinfo fbVarScreenInfo
	var finfo fbFixScreenInfo
	if err := ioctl(fd, fbioGetVScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%s var screeninfo: %w", dev, err)
	}
	if err := ioctl(fd, fbioGetFScreenInfo, unsafe.Pointer(&finfo)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%s fix screeninfo: %w", dev, err)
	}
	size := int(finfo.LineLength * vinfo.Yres)
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap %s: %w", dev, err)
	}
	s, err := newSink(mem, int(vinfo.Xres), int(vinfo.Yres), int(finfo.LineLength), vinfo.format())
	if err != nil {
		unix.Munmap(mem)
		unix.Close(fd)
		return nil, err
	}
	s.closer = func() error {
		if err := unix.Munmap(mem); err != nil {
			return err
		}
		return unix.Close(fd)
	}
	return s, nil
}

func (v *fbVarScreenInfo) format() Format {
	return Format{
		BPP:   int(v.BitsPerPixel),
		Red:   v.Red.channel(),
		Green: v.Green.channel(),
		Blue:  v.Blue.channel(),
		Alpha: v.Transp.channel(),
	}
}

type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputAbsInfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | typ<<8 | nr
}

const iocRead = 2

func eviocGName(n int) uintptr { return ioc(iocRead, 'E', 0x06, uintptr(n)) }
func eviocGAbs(code int) uintptr {
	return ioc(iocRead, 'E', 0x40+uintptr(code), unsafe.Sizeof(inputAbsInfo{}))
}

func absRange(fd int, codes ...int) (axis, bool) {
	for _, c := range codes {
		var info inputAbsInfo
		if ioctl(fd, eviocGAbs(c), unsafe.Pointer(&info)) == nil {
			return axis{info.Minimum, info.Maximum}, true
		}
	}
	return axis{}, false
}

func deviceName(fd int) string {
	buf := make([]byte, 256)
	if ioctl(fd, eviocGName(len(buf)), unsafe.Pointer(&buf[0])) != nil {
		return ""
	}
	if i := strings.IndexByte(string(buf), 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

// FindTouch returns the first input device whose name looks like a touch panel.
func FindTouch() (string, error) {
	cands, _ := filepath.Glob("/dev/input/event*")
	for _, p := range cands {
		fd, err := unix.Open(p, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			continue
		}
		name := strings.ToLower(deviceName(fd))
		unix.Close(fd)
		if strings.Contains(name, "touch") || strings.Contains(name, "goodix") || strings.Contains(name, "ft5") {
			return p, nil
		}
	}
	return "", fmt.Errorf("no touch device under /dev/input")
}

// OpenTouch opens an evdev device and maps its absolute axes onto a w x h screen.
// An empty dev searches with FindTouch.
func OpenTouch(dev string, w, h int) (*Touch, error) {
	if dev == "" {
		var err error
		if dev, err = FindTouch(); err != nil {
			return nil, err
		}
	}
	fd, err := unix.Open(dev, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dev, err)
	}
	ax, ok := absRange(fd, absMTPositionX, absX)
	if !ok {
		ax = axis{0, int32(w - 1)}
	}
	ay, ok := absRange(fd, absMTPositionY, absY)
	if !ok {
		ay = axis{0, int32(h - 1)}
	}
	size := int(unsafe.Sizeof(inputEvent{}))
	next := func() (event, bool) {
		var ev inputEvent
		n, err := unix.Read(fd, unsafe.Slice((*byte)(unsafe.Pointer(&ev)), size))
		if err != nil || n != size {
			return event{}, false
		}
		return event{Type: ev.Type, Code: ev.Code, Value: ev.Value}, true
	}
	t := newTouch(w, h, ax, ay, next)
	t.close = func() error { return unix.Close(fd) }
	return t, nil
}
