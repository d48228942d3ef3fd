package model

// Window tracks the write cursor inside an address window, the same way a panel
// controller auto-increments its RAM pointer after setAddrWindow.
type Window struct {
	X, Y int
	W, H int
	pos  int
}

func NewWindow(x, y, w, h int) Window {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Window{X: x, Y: y, W: w, H: h}
}

// Remaining is the number of pixels that still fit in the window.
func (w *Window) Remaining() int {
	return w.W*w.H - w.pos
}

// Advance consumes n pixels and reports them as row spans: screen position,
// span length and offset into the consumed run. Pixels past the end of the window are dropped.
// It returns the number of pixels actually consumed.
func (w *Window) Advance(n int, span func(x, y, length, off int)) int {
	if n > w.Remaining() {
		n = w.Remaining()
	}
	off := 0
	for off < n {
		row := w.pos / w.W
		col := w.pos % w.W
		length := w.W - col
		if length > n-off {
			length = n - off
		}
		if span != nil {
			span(w.X+col, w.Y+row, length, off)
		}
		w.pos += length
		off += length
	}
	return n
}
