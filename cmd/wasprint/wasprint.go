// Command wasprint prints the contents of a WDF archive, and the frames of
// WAS sprites stored in it, on a terminal.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"

	"badc0de.net/pkg/go-wdf/paths"
	"badc0de.net/pkg/go-wdf/was"
	"badc0de.net/pkg/go-wdf/wdf"
)

var (
	hashFlag = flag.String("hash", "", "hex hash of the sprite to print")
	dir      = flag.Int("dir", 0, "direction to print")
	frame    = flag.Int("frame", -1, "animation step to print; -1 prints the whole direction")
	atlas    = flag.Bool("atlas", false, "whether to print all frames laid out on one image")
	list     = flag.Bool("list", false, "whether to list archive entries")
	asURL    = flag.Bool("dataurl", false, "whether to print a data: URL of a PNG instead of pixels")

	wdfPath string
)

func parseHash(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "hash %q", s)
	}
	return uint32(v), nil
}

// images returns what should be printed for the sprite, according to flags.
func images(s *was.Sprite) ([]image.Image, error) {
	if *atlas {
		return []image.Image{s.Atlas()}, nil
	}
	if *dir < 0 || *dir >= s.Directions() {
		return nil, errors.Errorf("direction %d out of range [0,%d)", *dir, s.Directions())
	}
	if *frame >= 0 {
		c := s.Cell(*dir, *frame)
		if c == nil {
			return nil, errors.Errorf("frame %d out of range [0,%d)", *frame, s.FramesPerDirection())
		}
		return []image.Image{c}, nil
	}
	var out []image.Image
	for i := 0; i < s.FramesPerDirection(); i++ {
		out = append(out, s.Cell(*dir, i))
	}
	return out, nil
}

func spriteHandler(a *wdf.Archive, hash uint32) {
	s, err := was.FromArchive(a, hash)
	if err != nil {
		glog.Errorf("error loading sprite %08x: %v", hash, err)
		return
	}
	glog.V(1).Infof("sprite %08x: %d directions, %d frames, %dx%d", hash, s.Directions(), s.FramesPerDirection(), s.Header.Width, s.Header.Height)

	imgs, err := images(s)
	if err != nil {
		glog.Errorf("sprite %08x: %v", hash, err)
		return
	}
	for _, img := range imgs {
		if *asURL {
			u, err := pngDataURL(img)
			if err != nil {
				glog.Errorf("sprite %08x: %v", hash, err)
				return
			}
			fmt.Println(u.String())
			continue
		}
		out(img)
	}
}

func pngDataURL(img image.Image) (*dataurl.DataURL, error) {
	buf, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	return dataurl.New(buf, "image/png"), nil
}

func main() {
	paths.SetupFilePathFlag("shape.wdf", "wdf_path", &wdfPath)
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	if wdfPath == "" {
		glog.Exitf("no archive found; pass -wdf_path")
	}
	a, err := wdf.Open(wdfPath)
	if err != nil {
		glog.Exitf("opening %s: %v", wdfPath, err)
	}

	if *list {
		writeListing(os.Stdout, a)
	}
	if *hashFlag != "" {
		hash, err := parseHash(*hashFlag)
		if err != nil {
			glog.Exitf("%v", err)
		}
		spriteHandler(a, hash)
	}
}
