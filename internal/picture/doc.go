// Package picture defines the canonical in-memory image model shared by all
// codecs in this module, together with the conversions between its four
// color representations.
//
// # Pixel Interpretation
//
// An Image stores a height x width grid of 4-byte Pixel cells. A cell carries
// no discriminant of its own: the image's Mode decides how it is read.
//
//   - Indexed: channel 0 holds a palette index (< len(Palette))
//   - Gray: channel 0 holds an intensity 0-255
//   - RGB/RGBA: the four channels hold R, G, B, A
//
// Access goes through the mode-checked accessors (ColorAt, GrayAt, IndexAt
// and their setters); reading a cell under the wrong mode is a programming
// error and panics.
//
// # Conversions
//
// ToIndexed, ToGray, ToRGB, ToRGBA, CompositeOnto and ToBinary transform an
// image destructively in place. Callers that need the original must Clone
// first. Conversions never log; failures are reported through returned
// errors (ErrUnsupportedMode, ErrTooManyColors, ErrBadIndex).
package picture
