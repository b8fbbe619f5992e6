package wdf

// This file contains code directly related to reading the archive header
// and directory table.

import (
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Signature is the archive magic, "PFDW" when read as bytes.
const Signature = 0x57444650

const (
	headerSize = 12
	recordSize = 16
)

// Header is the fixed-size start of an archive.
type Header struct {
	Signature   uint32
	EntryCount  uint32
	TableOffset uint32
}

// record is a directory record as stored in the archive.
type record struct {
	Hash    uint32
	Offset  uint32
	Size    uint32
	Spacing uint32
}

// Entry describes one asset stored in an archive.
type Entry struct {
	Hash    uint32
	Offset  uint32
	Size    uint32
	Spacing uint32 // reserved; preserved as read

	Type Type
}

// Archive is a loaded archive directory.
//
// The directory is read in full when the archive is opened and is not
// modified afterwards, so an Archive is safe for concurrent use. No file
// handle is retained.
type Archive struct {
	path    string
	header  Header
	entries map[uint32]Entry
}

// Open reads the archive header and directory from the file at path, and
// classifies every entry. The file is closed before Open returns.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening wdf")
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat wdf")
	}

	glog.V(1).Infof("wdf: loading %q", path)
	a, err := New(f, st.Size())
	if err != nil {
		return nil, err
	}
	a.path = path
	glog.V(1).Infof("wdf: loaded %q with %d entries", path, len(a.entries))
	return a, nil
}

// New reads the archive header and directory from r, which holds size bytes.
// r is not retained.
func New(r io.ReaderAt, size int64) (*Archive, error) {
	sr := io.NewSectionReader(r, 0, size)

	var h Header
	if err := binary.Read(sr, binary.LittleEndian, &h); err != nil {
		return nil, truncated(err, "could not read wdf header")
	}
	if h.Signature != Signature {
		return nil, errors.Wrapf(ErrInvalidFormat, "bad wdf signature; got %08x, want %08x", h.Signature, Signature)
	}

	tableEnd := int64(h.TableOffset) + int64(h.EntryCount)*recordSize
	if tableEnd > size {
		return nil, errors.Wrapf(ErrTruncated, "wdf directory of %d entries at %d ends past %d", h.EntryCount, h.TableOffset, size)
	}

	records := make([]record, h.EntryCount)
	if _, err := sr.Seek(int64(h.TableOffset), io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "seeking to wdf directory")
	}
	if err := binary.Read(sr, binary.LittleEndian, records); err != nil {
		return nil, truncated(err, "could not read wdf directory")
	}

	a := &Archive{
		header:  h,
		entries: make(map[uint32]Entry, len(records)),
	}
	prefix := make([]byte, ClassifyPrefixLen)
	for _, rec := range records {
		if _, dup := a.entries[rec.Hash]; dup {
			glog.Warningf("wdf: duplicate hash %08x in directory; keeping last", rec.Hash)
		}
		e := Entry{
			Hash:    rec.Hash,
			Offset:  rec.Offset,
			Size:    rec.Size,
			Spacing: rec.Spacing,
		}
		n, err := r.ReadAt(prefix, int64(rec.Offset))
		if err != nil && err != io.EOF {
			glog.Warningf("wdf: could not read prefix of entry %08x at %d: %v", rec.Hash, rec.Offset, err)
		}
		if n > int(rec.Size) {
			n = int(rec.Size)
		}
		e.Type = Classify(prefix[:n])
		glog.V(3).Infof("wdf: entry %08x offset=%d size=%d type=%s", e.Hash, e.Offset, e.Size, e.Type)
		a.entries[rec.Hash] = e
	}
	return a, nil
}

// Path returns the path the archive was opened from, or an empty string if it
// was read with New.
func (a *Archive) Path() string {
	return a.path
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Len returns the number of distinct entries in the directory.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Lookup returns the entry with the passed content hash.
func (a *Archive) Lookup(hash uint32) (Entry, error) {
	e, ok := a.entries[hash]
	if !ok {
		return Entry{}, errors.Wrapf(ErrNotFound, "hash %08x", hash)
	}
	return e, nil
}

// Entries returns all entries, ordered by hash.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

// ReadEntry reads the payload of e from r.
func ReadEntry(r io.ReaderAt, e Entry) ([]byte, error) {
	buf := make([]byte, e.Size)
	n, err := r.ReadAt(buf, int64(e.Offset))
	if n == len(buf) {
		return buf, nil
	}
	return nil, truncated(err, "could not read wdf entry payload")
}

// ReadEntry opens the archive file again and reads the payload of e. It can
// only be used on archives loaded with Open.
func (a *Archive) ReadEntry(e Entry) ([]byte, error) {
	f, err := a.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadEntry(f, e)
}

// Source opens the archive file for reading entry payloads. The caller closes
// the returned file.
func (a *Archive) Source() (*os.File, error) {
	return a.open()
}

func (a *Archive) open() (*os.File, error) {
	if a.path == "" {
		return nil, errors.New("wdf: archive has no backing path")
	}
	f, err := os.Open(a.path)
	if err != nil {
		return nil, errors.Wrap(err, "reopening wdf")
	}
	return f, nil
}
