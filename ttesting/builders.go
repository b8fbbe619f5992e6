package ttesting

// This file contains builders synthesizing archives and sprites in memory, so
// that tests do not depend on game datafiles being available.

import (
	"bytes"
	"encoding/binary"

	"github.com/bradfitz/iter"
)

// ArchiveBuilder assembles a WDF archive: header, payloads, then the
// directory table at the end.
type ArchiveBuilder struct {
	Signature uint32
	hashes    []uint32
	payloads  [][]byte
	sizes     []uint32
}

func NewArchiveBuilder() *ArchiveBuilder {
	return &ArchiveBuilder{Signature: 0x57444650}
}

// Add appends an entry.
func (b *ArchiveBuilder) Add(hash uint32, payload []byte) *ArchiveBuilder {
	return b.AddWithSize(hash, payload, uint32(len(payload)))
}

// AddWithSize appends an entry whose directory record declares size rather
// than the length of payload. The full payload is still stored.
func (b *ArchiveBuilder) AddWithSize(hash uint32, payload []byte, size uint32) *ArchiveBuilder {
	b.hashes = append(b.hashes, hash)
	b.payloads = append(b.payloads, payload)
	b.sizes = append(b.sizes, size)
	return b
}

// Offset returns the offset the i-th added payload will be stored at.
func (b *ArchiveBuilder) Offset(i int) uint32 {
	off := uint32(12)
	for j := range iter.N(i) {
		off += uint32(len(b.payloads[j]))
	}
	return off
}

func (b *ArchiveBuilder) Bytes() []byte {
	buf := &bytes.Buffer{}
	tableOffset := b.Offset(len(b.payloads))
	binary.Write(buf, binary.LittleEndian, []uint32{b.Signature, uint32(len(b.hashes)), tableOffset})
	for _, p := range b.payloads {
		buf.Write(p)
	}
	for i, h := range b.hashes {
		binary.Write(buf, binary.LittleEndian, []uint32{h, b.Offset(i), b.sizes[i], 0})
	}
	return buf.Bytes()
}

// FrameBuilder assembles one encoded frame: sub-header, line offset table and
// opcode streams. Each row's stream is stored in order, unless a row points
// at another row's stream.
type FrameBuilder struct {
	X, Y          int32
	Width, Height uint32
	Rows          [][]byte
	// Shared maps a row onto an earlier row whose stream it reuses.
	Shared map[int]int
}

func (f *FrameBuilder) Bytes() []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, f.X)
	binary.Write(buf, binary.LittleEndian, f.Y)
	binary.Write(buf, binary.LittleEndian, f.Width)
	binary.Write(buf, binary.LittleEndian, f.Height)

	offsets := make([]uint32, len(f.Rows))
	next := uint32(16 + 4*len(f.Rows))
	for i, row := range f.Rows {
		if src, ok := f.Shared[i]; ok {
			offsets[i] = offsets[src]
			continue
		}
		offsets[i] = next
		next += uint32(len(row))
	}
	binary.Write(buf, binary.LittleEndian, offsets)
	for i, row := range f.Rows {
		if _, ok := f.Shared[i]; ok {
			continue
		}
		buf.Write(row)
	}
	return buf.Bytes()
}

// SpriteBuilder assembles a WAS sprite.
type SpriteBuilder struct {
	Directions, FramesPerDirection int
	Width, Height                  int16
	X, Y                           int16
	Timings                        []byte
	Palette                        [256]uint16
	Frames                         []*FrameBuilder // Directions*FramesPerDirection, row-major
}

func (s *SpriteBuilder) Bytes() []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("SP")
	binary.Write(buf, binary.LittleEndian, []int16{
		int16(12 + len(s.Timings)),
		int16(s.Directions),
		int16(s.FramesPerDirection),
		s.Width, s.Height, s.X, s.Y,
	})
	buf.Write(s.Timings)
	binary.Write(buf, binary.LittleEndian, s.Palette[:])

	encoded := make([][]byte, len(s.Frames))
	for i, f := range s.Frames {
		encoded[i] = f.Bytes()
	}
	// Frame offsets are relative to the end of the header fields that
	// follow the signature and size, i.e. to the start of the palette.
	rel := uint32(256*2 + 4*len(encoded))
	for _, e := range encoded {
		binary.Write(buf, binary.LittleEndian, rel)
		rel += uint32(len(e))
	}
	for _, e := range encoded {
		buf.Write(e)
	}
	return buf.Bytes()
}
