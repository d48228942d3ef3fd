package layout

// Grid maps panel coordinates onto a single LED chain.
type Grid struct {
	W, H int
	// XFlipEveryRow reverses odd rows, as on serpentine-wired matrices.
	XFlipEveryRow bool
}

// Len is the chain length.
func (g Grid) Len() int { return g.W * g.H }

// Index maps x,y -> linear LED index (0..Len()-1)
func (g Grid) Index(x, y int) int {
	xx := x
	if (y%2 == 1) && g.XFlipEveryRow {
		xx = g.W - 1 - x
	}
	return y*g.W + xx
}
