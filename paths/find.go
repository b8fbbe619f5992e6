// Package paths locates archives and other datafiles on the local machine.
package paths

import (
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Find locates the passed datafile shortname and returns an absolute or
// relative path to find the datafile at.
//
// For example, for "shape.wdf" it may return "datafiles/shape.wdf" or
// "mybinary.runfiles/go_wdf/datafiles/shape.wdf". If the file is not found,
// an empty string is returned.
func Find(fileName string) string {
	for _, path := range PossiblePaths(fileName) {
		if f, err := os.Open(path); err == nil {
			f.Close()
			glog.V(1).Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// ReadSeekCloser is an opened datafile.
type ReadSeekCloser interface {
	io.ReadCloser
	io.Seeker
	io.ReaderAt
}

// Open locates the passed file in the same locations that Find would look,
// and opens it. If Find returns an empty string, an error is returned.
func Open(fileName string) (ReadSeekCloser, error) {
	path := Find(fileName)
	if path == "" {
		return nil, errors.Errorf("paths: %q not found in any of %v", fileName, PossiblePathDirs())
	}
	return NoFindOpen(path)
}

// NoFindOpen opens the file at exactly the passed path.
func NoFindOpen(path string) (ReadSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "paths: opening %q", path)
	}
	return f, nil
}
