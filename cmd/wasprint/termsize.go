package main

import (
	"golang.org/x/crypto/ssh/terminal"
)

// TermSize is the terminal size in cells and, where the terminal reports it,
// in pixels.
type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}

// stdinTermSize asks for the size of the terminal on stdin; pixel sizes are
// left zero.
func stdinTermSize() (TermSize, error) {
	w, h, err := terminal.GetSize(0) // or int(os.Stdin.Fd())
	if err != nil {
		return TermSize{}, err
	}
	return TermSize{WSRow: uint(h), WSCol: uint(w)}, nil
}
