// Package bmp reads and writes Windows BMP files using the picture model.
//
// The reader accepts the 12-byte OS/2 core header, the 40- and 64-byte info
// headers, and the 108/124-byte V4/V5 headers; bit depths 1, 4, 8, 16, 24
// and 32; uncompressed, RLE4, RLE8 and bit-field compression; and both
// bottom-up and top-down row order. Decoded images always present rows
// top-to-bottom.
//
// The writer emits the 40-byte info header for depths up to 24 bits
// (optionally RLE-compressed for 4- and 8-bit indexed data) and the 124-byte
// V5 header with explicit A8R8G8B8 masks for 32-bit RGBA. Output is always
// bottom-up. The bit depth is chosen from the image alone: indexed images
// use 1, 4 or 8 bits depending on palette size, grayscale is written as
// 8-bit indexed, RGB as 24-bit, RGBA as 32-bit.
package bmp
