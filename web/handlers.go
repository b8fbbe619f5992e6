// Package web serves the contents of a WDF archive over HTTP.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"
	"golang.org/x/net/trace"

	"badc0de.net/pkg/go-wdf/datafiles"
	"badc0de.net/pkg/go-wdf/was"
	"badc0de.net/pkg/go-wdf/wdf"
)

// MaxScale is the largest accepted ?scale= magnification.
const MaxScale = 8

// maxCachedSprites bounds the decoded sprite cache.
const maxCachedSprites = 64

var entryTable = template.Must(template.New("entrytable.html").Parse(datafiles.EntryTableHTML()))

// contentTypes maps entry types onto the Content-Type of raw payloads.
var contentTypes = map[wdf.Type]string{
	wdf.TypeMP3:  "audio/mpeg",
	wdf.TypeWave: "audio/wav",
	wdf.TypeJPEG: "image/jpeg",
	wdf.TypePNG:  "image/png",
	wdf.TypeTGA:  "image/x-tga",
	wdf.TypeRAR:  "application/vnd.rar",
}

type Handler struct {
	archive *wdf.Archive
	src     io.ReaderAt

	spriteLock sync.Mutex
	sprites    map[uint32]*was.Sprite
}

// NewHandler constructs web handler for the passed archive. Payloads are read
// from src, which must hold the same archive; an *os.File is fine, as ReadAt
// may be called concurrently.
func NewHandler(a *wdf.Archive, src io.ReaderAt) *Handler {
	return &Handler{
		archive: a,
		src:     src,
		sprites: make(map[uint32]*was.Sprite),
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.indexHandler)
	r.HandleFunc("/entries.json", h.entriesHandler)
	r.HandleFunc("/raw/{hash:[0-9a-fA-F]+}", h.rawHandler)
	r.HandleFunc("/was/{hash:[0-9a-fA-F]+}/atlas.png", h.atlasHandler)
	r.HandleFunc("/was/{hash:[0-9a-fA-F]+}/{dir:[0-9]+}.gif", h.gifHandler)
	r.HandleFunc("/was/{hash:[0-9a-fA-F]+}/{dir:[0-9]+}-{fr:[0-9]+}.png", h.frameHandler)
}

type entryRow struct {
	Hash, Offset, Size uint32
	Type               wdf.Type
	Sprite             bool
}

func (h *Handler) rows() []entryRow {
	var rows []entryRow
	for _, e := range h.archive.Entries() {
		rows = append(rows, entryRow{
			Hash:   e.Hash,
			Offset: e.Offset,
			Size:   e.Size,
			Type:   e.Type,
			Sprite: e.Type == wdf.TypeSprite,
		})
	}
	return rows
}

func (h *Handler) indexHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("wdfweb.index", r.URL.Path)
	defer tr.Finish()

	rows := h.rows()
	tr.LazyPrintf("%d entries", len(rows))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	err := entryTable.Execute(w, struct {
		Path  string
		Count int
		Rows  []entryRow
	}{h.archive.Path(), len(rows), rows})
	if err != nil {
		tr.SetError()
		glog.Errorf("error rendering entry table: %v", err)
	}
}

// EntryJSON is one element of the /entries.json listing.
type EntryJSON struct {
	Hash    string `json:"hash"`
	Offset  uint32 `json:"offset"`
	Size    uint32 `json:"size"`
	Type    string `json:"type"`
	Preview string `json:"preview,omitempty"` // data: URL of the first cell, with ?preview=1
}

func (h *Handler) entriesHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("wdfweb.entries", r.URL.Path)
	defer tr.Finish()

	preview := r.URL.Query().Get("preview") == "1"

	var out []EntryJSON
	for _, e := range h.archive.Entries() {
		j := EntryJSON{
			Hash:   fmt.Sprintf("%08x", e.Hash),
			Offset: e.Offset,
			Size:   e.Size,
			Type:   e.Type.String(),
		}
		if preview && e.Type == wdf.TypeSprite {
			if s, err := h.sprite(e.Hash); err == nil && s.Directions() > 0 && s.FramesPerDirection() > 0 {
				buf := &bytes.Buffer{}
				if err := png.Encode(buf, s.Cell(0, 0)); err == nil {
					j.Preview = dataurl.New(buf.Bytes(), "image/png").String()
				}
			} else if err != nil {
				// ignore broken sprites, but keep them listed
				tr.LazyPrintf("preview %08x: %v", e.Hash, err)
			}
		}
		out = append(out, j)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		tr.SetError()
		glog.Errorf("error encoding entries: %v", err)
	}
}

func parseHash(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// httpStatus picks the response code for a lookup or decode failure.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, wdf.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wdf.ErrInvalidFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) rawHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("wdfweb.raw", r.URL.Path)
	defer tr.Finish()

	hash, err := parseHash(mux.Vars(r)["hash"])
	if err != nil {
		http.Error(w, "hash not a 32-bit hex number", http.StatusBadRequest)
		return
	}
	e, err := h.archive.Lookup(hash)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	etag := h.etag("raw", e, "")
	if h.notModified(w, r, etag) {
		return
	}

	data, err := wdf.ReadEntry(h.src, e)
	if err != nil {
		tr.LazyPrintf("%v", err)
		tr.SetError()
		http.Error(w, "failed to read entry", http.StatusInternalServerError)
		glog.Errorf("error reading entry %08x: %v", hash, err)
		return
	}

	mime, ok := contentTypes[e.Type]
	if !ok {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	h.cacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) frameHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("wdfweb.frame", r.URL.Path)
	defer tr.Finish()

	vars := mux.Vars(r)
	hash, err := parseHash(vars["hash"])
	if err != nil {
		http.Error(w, "hash not a 32-bit hex number", http.StatusBadRequest)
		return
	}
	dir, err := strconv.Atoi(vars["dir"])
	if err != nil {
		http.Error(w, "dir not a number", http.StatusBadRequest)
		return
	}
	fr, err := strconv.Atoi(vars["fr"])
	if err != nil {
		http.Error(w, "fr not a number", http.StatusBadRequest)
		return
	}
	scale := 1
	if sc := r.URL.Query().Get("scale"); sc != "" {
		scale, _ = strconv.Atoi(sc)
		// ignore invalid scale
		if scale < 1 {
			scale = 1
		}
		if scale > MaxScale {
			scale = MaxScale
		}
	}

	s, e, err := h.lookupSprite(hash)
	if err != nil {
		tr.LazyPrintf("%v", err)
		tr.SetError()
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	etag := h.etag("frame", e, fmt.Sprintf("%d.%d.%d", dir, fr, scale))
	if h.notModified(w, r, etag) {
		return
	}

	if s.Frame(dir, fr) == nil {
		http.Error(w, "no such frame", http.StatusNotFound)
		return
	}
	var img image.Image = s.Cell(dir, fr)
	if scale > 1 {
		b := img.Bounds()
		img = resize.Resize(uint(b.Dx()*scale), uint(b.Dy()*scale), img, resize.NearestNeighbor)
	}

	w.Header().Set("Content-Type", "image/png")
	h.cacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	png.Encode(w, img)
}

func (h *Handler) gifHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("wdfweb.gif", r.URL.Path)
	defer tr.Finish()

	vars := mux.Vars(r)
	hash, err := parseHash(vars["hash"])
	if err != nil {
		http.Error(w, "hash not a 32-bit hex number", http.StatusBadRequest)
		return
	}
	dir, err := strconv.Atoi(vars["dir"])
	if err != nil {
		http.Error(w, "dir not a number", http.StatusBadRequest)
		return
	}

	s, e, err := h.lookupSprite(hash)
	if err != nil {
		tr.LazyPrintf("%v", err)
		tr.SetError()
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	etag := h.etag("gif", e, strconv.Itoa(dir))
	if h.notModified(w, r, etag) {
		return
	}

	// Encode up front, so that a failure can still be reported with a
	// proper status code.
	buf := &bytes.Buffer{}
	if err := s.EncodeGIF(buf, dir); err != nil {
		tr.LazyPrintf("%v", err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/gif")
	h.cacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *Handler) atlasHandler(w http.ResponseWriter, r *http.Request) {
	tr := trace.New("wdfweb.atlas", r.URL.Path)
	defer tr.Finish()

	hash, err := parseHash(mux.Vars(r)["hash"])
	if err != nil {
		http.Error(w, "hash not a 32-bit hex number", http.StatusBadRequest)
		return
	}

	s, e, err := h.lookupSprite(hash)
	if err != nil {
		tr.LazyPrintf("%v", err)
		tr.SetError()
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	etag := h.etag("atlas", e, "")
	if h.notModified(w, r, etag) {
		return
	}

	w.Header().Set("Content-Type", "image/png")
	h.cacheHeaders(w, etag)
	w.WriteHeader(http.StatusOK)
	png.Encode(w, s.Atlas())
}

// lookupSprite returns the decoded sprite stored under hash, along with its
// directory entry.
func (h *Handler) lookupSprite(hash uint32) (*was.Sprite, wdf.Entry, error) {
	e, err := h.archive.Lookup(hash)
	if err != nil {
		return nil, wdf.Entry{}, err
	}
	s, err := h.sprite(hash)
	if err != nil {
		return nil, wdf.Entry{}, err
	}
	return s, e, nil
}

func (h *Handler) sprite(hash uint32) (*was.Sprite, error) {
	h.spriteLock.Lock()
	defer h.spriteLock.Unlock()

	if s, ok := h.sprites[hash]; ok {
		return s, nil
	}
	e, err := h.archive.Lookup(hash)
	if err != nil {
		return nil, err
	}
	s, err := was.Load(h.src, e)
	if err != nil {
		return nil, err
	}
	if len(h.sprites) >= maxCachedSprites {
		for k := range h.sprites {
			delete(h.sprites, k)
			break
		}
	}
	h.sprites[hash] = s
	return s, nil
}

func (h *Handler) etag(kind string, e wdf.Entry, extra string) string {
	generation := 1 // bump if the way we generate it changes
	return fmt.Sprintf(`W/"%s:%d:%08x:%d:%d:%s"`, kind, generation, e.Hash, e.Offset, e.Size, extra)
}

func (h *Handler) notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	if r.Header.Get("If-None-Match") != etag {
		return false
	}
	w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
	return true
}

func (h *Handler) cacheHeaders(w http.ResponseWriter, etag string) {
	w.Header().Set("Cache-Control", "public; max-age=36000") // 36000 = 10h
	w.Header().Set("ETag", etag)
	if p := h.archive.Path(); p != "" {
		if s, err := os.Stat(p); err == nil {
			w.Header().Set("Last-Modified", s.ModTime().Format(http.TimeFormat))
		}
	}
}
