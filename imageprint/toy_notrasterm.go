//go:build windows

package imageprint

import (
	"flag"
	"image"
	"io"

	"github.com/pkg/errors"
)

var (
	forceITerm = flag.Bool("force_iterm", false, "whether to assume the terminal speaks iTerm2 inline images (no rasterm on windows)")
)

// detectProtocol cannot query the console here; only iTerm2 images, written
// without rasterm, are available, and only when forced.
func detectProtocol() protocol {
	if *forceITerm {
		return protoITerm
	}
	return protoNone
}

func writeGraphics(w io.Writer, proto protocol, i image.Image, colors int) error {
	if proto != protoITerm {
		return errors.Errorf("graphics protocol %d not supported on windows", proto)
	}
	writeITerm(w, i, "frame.png")
	return nil
}
