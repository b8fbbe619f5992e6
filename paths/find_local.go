package paths

import (
	"os"
	"path/filepath"
)

// DirEnv names an environment variable holding an additional directory to
// search first.
const DirEnv = "WDF_DATAFILES"

// PossiblePathDirs returns the directories Find looks in, in order.
func PossiblePathDirs() []string {
	var dirs []string
	if d := os.Getenv(DirEnv); d != "" {
		dirs = append(dirs, d)
	}
	dirs = append(dirs, "datafiles")
	if gopath := os.Getenv("GOPATH"); gopath != "" {
		dirs = append(dirs, filepath.Join(gopath, "src", "badc0de.net", "pkg", "go-wdf", "datafiles"))
	}
	if srcdir := os.Getenv("TEST_SRCDIR"); srcdir != "" {
		dirs = append(dirs, filepath.Join(srcdir, "go_wdf", "datafiles"))
	}
	dirs = append(dirs, os.Args[0]+".runfiles/go_wdf/datafiles")
	return dirs
}

// PossiblePaths returns the paths Find tries for fileName, in order.
func PossiblePaths(fileName string) []string {
	dirs := PossiblePathDirs()
	paths := make([]string, 0, len(dirs))
	for _, d := range dirs {
		paths = append(paths, filepath.Join(d, fileName))
	}
	return paths
}
