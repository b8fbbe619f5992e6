// Package wdf implements a reader for WDF archives.
//
// A WDF archive is a flat container of game assets. A 12-byte header names
// the location of a directory table; each directory record maps the content
// hash of an asset to a byte range within the archive. The archive does not
// store what kind of asset lives in a range, so the type of each entry is
// determined by sniffing the leading bytes of its payload.
//
// Sprite entries (see package was) are the main reason to open an archive,
// but the directory also indexes sound, image and nested archive payloads.
// Only their type is recognized here; their payload is returned verbatim.
package wdf
