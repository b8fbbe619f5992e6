// Command wdfexport writes every entry of a WDF archive to a directory:
// sprites as PNG atlases and, optionally, animated GIFs; other entries as
// their raw payload.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"badc0de.net/pkg/go-wdf/paths"
	"badc0de.net/pkg/go-wdf/was"
	"badc0de.net/pkg/go-wdf/wdf"
)

var (
	outDir = flag.String("out", "export", "directory to write entries to")
	jobs   = flag.Int("jobs", runtime.GOMAXPROCS(0), "number of entries exported concurrently")
	gifs   = flag.Bool("gif", false, "whether to also write one animated GIF per sprite direction")
	raw    = flag.Bool("raw", true, "whether to write payloads of entries that are not sprites")

	wdfPath string
)

var extensions = map[wdf.Type]string{
	wdf.TypeSprite: "was",
	wdf.TypePK:     "pk",
	wdf.TypeMP3:    "mp3",
	wdf.TypeWave:   "wav",
	wdf.TypeFSB4:   "fsb",
	wdf.TypeJPEG:   "jpg",
	wdf.TypeTGA:    "tga",
	wdf.TypePNG:    "png",
	wdf.TypeRAR:    "rar",
}

type exporter struct {
	src io.ReaderAt
	dir string
	gif bool
	raw bool
}

type stats struct {
	sprites, raw, skipped, failed int64
}

// export writes out one entry.
func (x *exporter) export(e wdf.Entry, st *stats) error {
	if e.Type != wdf.TypeSprite {
		if !x.raw {
			atomic.AddInt64(&st.skipped, 1)
			return nil
		}
		data, err := wdf.ReadEntry(x.src, e)
		if err != nil {
			return err
		}
		ext, ok := extensions[e.Type]
		if !ok {
			ext = "bin"
		}
		if err := os.WriteFile(filepath.Join(x.dir, fmt.Sprintf("%08x.%s", e.Hash, ext)), data, 0644); err != nil {
			return errors.Wrap(err, "writing payload")
		}
		atomic.AddInt64(&st.raw, 1)
		return nil
	}

	s, err := was.Load(x.src, e)
	if err != nil {
		return err
	}
	if err := x.create(fmt.Sprintf("%08x.png", e.Hash), func(w io.Writer) error {
		return png.Encode(w, s.Atlas())
	}); err != nil {
		return err
	}
	if x.gif {
		for d := 0; d < s.Directions() && s.FramesPerDirection() > 0; d++ {
			if err := x.create(fmt.Sprintf("%08x-%d.gif", e.Hash, d), func(w io.Writer) error {
				return s.EncodeGIF(w, d)
			}); err != nil {
				return err
			}
		}
	}
	atomic.AddInt64(&st.sprites, 1)
	return nil
}

func (x *exporter) create(name string, write func(io.Writer) error) error {
	f, err := os.Create(filepath.Join(x.dir, name))
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding %s", name)
	}
	return f.Close()
}

// exportAll exports entries, at most jobs at a time.
func (x *exporter) exportAll(entries []wdf.Entry, jobs int) *stats {
	st := &stats{}
	if jobs < 1 {
		jobs = 1
	}
	swg := sizedwaitgroup.New(jobs)
	for _, e := range entries {
		swg.Add()
		go func(e wdf.Entry) {
			defer swg.Done()
			if err := x.export(e, st); err != nil {
				atomic.AddInt64(&st.failed, 1)
				glog.Errorf("entry %08x (%s): %v", e.Hash, e.Type, err)
				return
			}
			glog.V(2).Infof("exported %08x", e.Hash)
		}(e)
	}
	swg.Wait()
	return st
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
	f, err := a.Source()
	if err != nil {
		glog.Exitf("%v", err)
	}
	defer f.Close()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		glog.Exitf("%v", err)
	}

	p := message.NewPrinter(language.English)
	p.Printf("Found %d entries.\n", a.Len())

	x := &exporter{src: f, dir: *outDir, gif: *gifs, raw: *raw}
	st := x.exportAll(a.Entries(), *jobs)

	p.Printf("Exported %d sprites and %d other entries; skipped %d, failed %d.\n", st.sprites, st.raw, st.skipped, st.failed)
	if st.failed > 0 {
		f.Close()
		os.Exit(1)
	}
}
