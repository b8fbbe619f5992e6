//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sys/unix"
)

var kittyPixelReply = regexp.MustCompile(`\[4;(\d+);(\d+)t`)

func GetTermSize() (TermSize, error) {
	f, err := os.OpenFile("/dev/tty", unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NDELAY|unix.O_RDWR, 0666)
	if err != nil {
		return stdinTermSize()
	}
	defer f.Close()

	sz, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return stdinTermSize()
	}
	ts := TermSize{WSRow: uint(sz.Row), WSCol: uint(sz.Col), WSXPixel: uint(sz.Xpixel), WSYPixel: uint(sz.Ypixel)}
	if ts.WSXPixel == 0 && ts.WSYPixel == 0 && os.Getenv("TERM") == "xterm-kitty" {
		if w, h, err := kittyPixelSize(f); err == nil {
			ts.WSXPixel, ts.WSYPixel = w, h
		} else {
			glog.V(1).Infof("kitty pixel size query: %v", err)
		}
	}
	return ts, nil
}

// kittyPixelSize asks the terminal for its size in pixels with CSI 14 t.
//
// https://sw.kovidgoyal.net/kitty/graphics-protocol/#getting-the-window-size
func kittyPixelSize(tty *os.File) (uint, uint, error) {
	state, err := terminal.MakeRaw(int(tty.Fd()))
	if err != nil {
		return 0, 0, err
	}
	defer terminal.Restore(int(tty.Fd()), state)

	fmt.Printf("\033[14t")
	// Reply: <ESC>[4;<height>;<width>t
	// TODO: time out if the terminal never replies.
	reply, err := bufio.NewReader(os.Stdin).ReadString('t')
	if err != nil {
		return 0, 0, err
	}
	m := kittyPixelReply.FindStringSubmatch(reply)
	if len(m) != 3 {
		return 0, 0, errors.Errorf("unexpected reply %q", reply)
	}
	h, errH := strconv.Atoi(m[1])
	w, errW := strconv.Atoi(m[2])
	if errH != nil || errW != nil {
		return 0, 0, errors.Errorf("unexpected reply %q", reply)
	}
	return uint(w), uint(h), nil
}
