package was

import (
	"github.com/pkg/errors"
)

// ErrCorruptFrame is returned when a frame's line offset table or opcode
// stream points outside of the frame's bytes.
var ErrCorruptFrame = errors.New("corrupt frame")
