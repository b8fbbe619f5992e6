package wdf

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidFormat is returned when data does not carry the expected
	// signature, or when an entry of the wrong type is requested.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrTruncated is returned when a declared size or offset reaches past
	// the available bytes.
	ErrTruncated = errors.New("truncated")

	// ErrNotFound is returned by Lookup for hashes not in the directory.
	ErrNotFound = errors.New("entry not found")
)

// truncated maps short reads onto ErrTruncated and leaves other I/O errors
// untouched. A nil err stands for a short read reported without an error.
func truncated(err error, msg string) error {
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrap(ErrTruncated, msg)
	}
	return errors.Wrap(err, msg)
}
