package fbdev

// evdev event types and codes used by single touch panels.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	btnTouch = 0x014a

	absX            = 0x00
	absY            = 0x01
	absMTPositionX  = 0x35
	absMTPositionY  = 0x36
	absMTTrackingID = 0x39
)

type event struct {
	Type  uint16
	Code  uint16
	Value int32
}

type axis struct{ min, max int32 }

// Touch decodes an evdev stream into the latest committed touch state. A state
// is committed on SYN_REPORT, so a half received report is never visible.
type Touch struct {
	next  func() (event, bool)
	close func() error

	screenW, screenH int
	ax, ay           axis

	curX, curY int
	down       bool

	x, y    int
	touched bool
}

func newTouch(w, h int, ax, ay axis, next func() (event, bool)) *Touch {
	if ax.max <= ax.min {
		ax.max = ax.min + 1
	}
	if ay.max <= ay.min {
		ay.max = ay.min + 1
	}
	return &Touch{next: next, screenW: w, screenH: h, ax: ax, ay: ay}
}

// Read drains pending events without blocking and returns the committed state.
func (t *Touch) Read() (int, int, bool) {
	for {
		ev, ok := t.next()
		if !ok {
			break
		}
		t.handle(ev)
	}
	return t.x, t.y, t.touched
}

func (t *Touch) handle(ev event) {
	switch ev.Type {
	case evAbs:
		switch ev.Code {
		case absX, absMTPositionX:
			t.curX = scale(ev.Value, t.ax, t.screenW)
		case absY, absMTPositionY:
			t.curY = scale(ev.Value, t.ay, t.screenH)
		case absMTTrackingID:
			t.down = ev.Value >= 0
		}
	case evKey:
		if ev.Code == btnTouch {
			t.down = ev.Value != 0
		}
	case evSyn:
		if ev.Code == synReport {
			t.x, t.y, t.touched = t.curX, t.curY, t.down
		}
	}
}

func (t *Touch) Close() error {
	if t.close == nil {
		return nil
	}
	err := t.close()
	t.close = nil
	return err
}

func scale(v int32, a axis, out int) int {
	if out <= 1 {
		return 0
	}
	if v < a.min {
		v = a.min
	}
	if v > a.max {
		v = a.max
	}
	return int(int64(v-a.min) * int64(out-1) / int64(a.max-a.min))
}
