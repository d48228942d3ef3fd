package model

import (
	"fmt"
	"image"
)

// Area is a rectangle with inclusive bounds, the way the engine reports dirty regions.
type Area struct {
	X1, Y1 int
	X2, Y2 int
}

func AreaFromRect(r image.Rectangle) Area {
	return Area{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X - 1, Y2: r.Max.Y - 1}
}

func (a Area) Width() int  { return a.X2 - a.X1 + 1 }
func (a Area) Height() int { return a.Y2 - a.Y1 + 1 }

// Count is the number of pixels covered; zero for an empty area.
func (a Area) Count() int {
	if a.Empty() {
		return 0
	}
	return a.Width() * a.Height()
}

func (a Area) Empty() bool { return a.X2 < a.X1 || a.Y2 < a.Y1 }

// Rect returns the half-open image.Rectangle equivalent.
func (a Area) Rect() image.Rectangle {
	return image.Rect(a.X1, a.Y1, a.X2+1, a.Y2+1)
}

func (a Area) Intersect(b Area) Area {
	return AreaFromRect(a.Rect().Intersect(b.Rect()))
}

// Join returns the bounding box of both areas. Empty areas are ignored.
func (a Area) Join(b Area) Area {
	switch {
	case a.Empty():
		return b
	case b.Empty():
		return a
	}
	return AreaFromRect(a.Rect().Union(b.Rect()))
}

func (a Area) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", a.X1, a.Y1, a.X2, a.Y2)
}
