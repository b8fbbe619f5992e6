// Package was implements a decoder for WAS sprites, the animated image format
// stored in WDF archives.
//
// A sprite is a grid of frames: one row per facing direction, one column per
// animation step. All frames share a single 256-color palette of packed
// RGB565 values. Each frame is run-length encoded one scan line at a time,
// with a table of per-line offsets into the opcode stream, and may carry
// per-pixel alpha.
//
// Frames implement image.Image, and the format is registered with the image
// package so that image.Decode returns the first frame of a sprite.
package was
