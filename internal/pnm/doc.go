// Package pnm reads and writes the netpbm family of formats: PBM bitmaps
// (P1/P4), PGM graymaps (P2/P5) and PPM pixmaps (P3/P6), in both their ASCII
// and binary encodings.
//
// Bitmaps decode to Indexed images with the fixed {white, black} palette,
// graymaps to Gray and pixmaps to RGB. Samples with a maxval other than 255
// are scaled to the 0..255 range on read. The writer always emits maxval 255
// and converts a clone of the image when its mode does not match the
// requested format.
package pnm
