//go:build !sdl

package main

import "errors"

func openSDL(w, h int) (opened, error) {
	return opened{}, errors.New("built without SDL support (rebuild with -tags sdl)")
}
