package port

import (
	"unsafe"

	"github.com/coreman2200/funtimes-panelport/model"
)

const pixelBytes = int(unsafe.Sizeof(model.Color(0)))

// allocAligned returns n zeroed pixels whose first element sits on an align byte boundary.
// The Go heap does not move objects, so the alignment holds for the buffer's lifetime.
func allocAligned(n, align int) ([]model.Color, error) {
	if n <= 0 {
		return nil, ErrAllocation
	}
	if align <= pixelBytes {
		return make([]model.Color, n), nil
	}
	extra := align / pixelBytes
	raw := make([]model.Color, n+extra)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&raw[0])) % uintptr(align)); rem != 0 {
		off = (align - rem) / pixelBytes
	}
	return raw[off : off+n : off+n], nil
}

func aligned(px []model.Color, align int) bool {
	if len(px) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(&px[0]))%uintptr(align) == 0
}
