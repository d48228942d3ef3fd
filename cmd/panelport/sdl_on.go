//go:build sdl

package main

import "github.com/coreman2200/funtimes-panelport/internal/sink/sdlwin"

func openSDL(w, h int) (opened, error) {
	win, err := sdlwin.New("panelport", w, h)
	if err != nil {
		return opened{}, err
	}
	return opened{sink: win, run: win.Run}, nil
}
