package main

import (
	"io"
	"path/filepath"
	"sort"

	"github.com/common-nighthawk/go-figure"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"badc0de.net/pkg/go-wdf/wdf"
)

// writeListing writes a banner, one line per entry, and per-type totals.
func writeListing(w io.Writer, a *wdf.Archive) {
	name := filepath.Base(a.Path())
	if a.Path() == "" {
		name = "wdf"
	}
	io.WriteString(w, figure.NewFigure(name, "", false).String())
	io.WriteString(w, "\n")

	p := message.NewPrinter(language.English)
	h := a.Header()
	p.Fprintf(w, "%d entries, table at offset %d\n", h.EntryCount, h.TableOffset)

	counts := map[wdf.Type]int{}
	sizes := map[wdf.Type]int64{}
	for _, e := range a.Entries() {
		p.Fprintf(w, "%08x %12d %10d %s\n", e.Hash, e.Offset, e.Size, e.Type)
		counts[e.Type]++
		sizes[e.Type] += int64(e.Size)
	}

	var types []wdf.Type
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		p.Fprintf(w, "%-8s %6d entries %14d bytes\n", t, counts[t], sizes[t])
	}
}
