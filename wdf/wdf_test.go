package wdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"badc0de.net/pkg/go-wdf/ttesting"
)

func testArchive() []byte {
	return ttesting.NewArchiveBuilder().
		Add(0x11111111, []byte("SP\x0c\x00rest")).
		Add(0x22222222, []byte{0x89, 'P', 'N', 'G'}).
		Add(0x33333333, []byte("RIFF....WAVE")).
		Add(0x44444444, []byte{0x01}).
		Bytes()
}

func TestNew(t *testing.T) {
	data := testArchive()
	a, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to read archive: %s", err)
	}

	ttesting.AssertEqualInt(t, "entry count", a.Len(), 4)
	ttesting.AssertEqualUint32(t, "header entry count", a.Header().EntryCount, 4)

	want := map[uint32]Type{
		0x11111111: TypeSprite,
		0x22222222: TypePNG,
		0x33333333: TypeWave,
		0x44444444: TypeUnknown,
	}
	for hash, typ := range want {
		e, err := a.Lookup(hash)
		if err != nil {
			t.Fatalf("lookup %08x: %s", hash, err)
		}
		if e.Type != typ {
			t.Errorf("entry %08x: got type %s; want %s", hash, e.Type, typ)
		}
		ttesting.AssertInRangeUint32(t, fmt.Sprintf("%08x offset", hash), e.Offset, headerSize, a.Header().TableOffset-1)
	}

	e, _ := a.Lookup(0x22222222)
	ttesting.AssertEqualUint32(t, "png offset", e.Offset, 12+8)
	ttesting.AssertEqualUint32(t, "png size", e.Size, 4)

	payload, err := ReadEntry(bytes.NewReader(data), e)
	if err != nil {
		t.Fatalf("failed to read payload: %s", err)
	}
	if !bytes.Equal(payload, []byte{0x89, 'P', 'N', 'G'}) {
		t.Errorf("got payload %q", payload)
	}
}

func TestLookupIsStable(t *testing.T) {
	data := testArchive()
	a, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to read archive: %s", err)
	}
	e1, err1 := a.Lookup(0x33333333)
	e2, err2 := a.Lookup(0x33333333)
	if err1 != nil || err2 != nil {
		t.Fatalf("lookup failed: %v, %v", err1, err2)
	}
	if e1 != e2 {
		t.Errorf("got %+v then %+v", e1, e2)
	}

	_, err = a.Lookup(0xDEADBEEF)
	ttesting.AssertErrorIs(t, "missing hash", err, ErrNotFound)
}

func TestBadSignature(t *testing.T) {
	for i := 0; i < 4; i++ {
		data := testArchive()
		data[i] ^= 0xFF
		_, err := New(bytes.NewReader(data), int64(len(data)))
		ttesting.AssertErrorIs(t, fmt.Sprintf("corrupted byte %d", i), err, ErrInvalidFormat)
	}
}

func TestTruncated(t *testing.T) {
	data := testArchive()

	_, err := New(bytes.NewReader(data[:7]), 7)
	ttesting.AssertErrorIs(t, "short header", err, ErrTruncated)

	short := data[:len(data)-3]
	_, err = New(bytes.NewReader(short), int64(len(short)))
	ttesting.AssertErrorIs(t, "short directory", err, ErrTruncated)

	a, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to read archive: %s", err)
	}
	e, _ := a.Lookup(0x33333333)
	e.Size += 1000
	_, err = ReadEntry(bytes.NewReader(data), e)
	ttesting.AssertErrorIs(t, "short payload", err, ErrTruncated)
}

func TestDuplicateHashLastWins(t *testing.T) {
	data := ttesting.NewArchiveBuilder().
		Add(0x1, []byte("SPxx")).
		Add(0x1, []byte{0xFF, 0xD8, 0xFF}).
		Bytes()
	a, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to read archive: %s", err)
	}
	ttesting.AssertEqualInt(t, "entry count", a.Len(), 1)
	e, _ := a.Lookup(0x1)
	if e.Type != TypeJPEG {
		t.Errorf("got type %s; want %s", e.Type, TypeJPEG)
	}
}

func TestEntriesOrdered(t *testing.T) {
	data := ttesting.NewArchiveBuilder().
		Add(0x30, []byte("SP")).
		Add(0x10, []byte("SP")).
		Add(0x20, []byte("SP")).
		Bytes()
	a, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to read archive: %s", err)
	}
	entries := a.Entries()
	for i, want := range []uint32{0x10, 0x20, 0x30} {
		ttesting.AssertEqualUint32(t, fmt.Sprintf("entry %d", i), entries[i].Hash, want)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.wdf")
	if err := os.WriteFile(path, testArchive(), 0644); err != nil {
		t.Fatalf("failed to write archive: %s", err)
	}

	a, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open archive: %s", err)
	}
	if a.Path() != path {
		t.Errorf("got path %q; want %q", a.Path(), path)
	}
	e, err := a.Lookup(0x11111111)
	if err != nil {
		t.Fatalf("lookup: %s", err)
	}
	payload, err := a.ReadEntry(e)
	if err != nil {
		t.Fatalf("failed to read payload: %s", err)
	}
	if string(payload) != "SP\x0c\x00rest" {
		t.Errorf("got payload %q", payload)
	}

	_, err = Open(filepath.Join(t.TempDir(), "missing.wdf"))
	if err == nil {
		t.Errorf("opening a missing file succeeded")
	}
}

// Classification only looks at an entry's own bytes, not at whatever follows
// it in the archive.
func TestClassifyShortEntry(t *testing.T) {
	data := ttesting.NewArchiveBuilder().
		Add(0x1, []byte{0x89}).
		Add(0x2, []byte{'P', 'N', 'G'}).
		Bytes()
	a, err := New(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("failed to read archive: %s", err)
	}
	e, _ := a.Lookup(0x1)
	if e.Type != TypeUnknown {
		t.Errorf("got type %s; want %s", e.Type, TypeUnknown)
	}
}

// halfReaderAt returns half of what is asked for, without an error.
type halfReaderAt struct{}

func (halfReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return len(p) / 2, nil
}

func TestReadEntryShortRead(t *testing.T) {
	payload, err := ReadEntry(halfReaderAt{}, Entry{Hash: 0x1, Offset: 12, Size: 8})
	ttesting.AssertErrorIs(t, "short read", err, ErrTruncated)
	if payload != nil {
		t.Errorf("got payload %v from a short read", payload)
	}
}
