//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package main

// GetTermSize has no pixel size ioctl to go by here.
func GetTermSize() (TermSize, error) {
	return stdinTermSize()
}
