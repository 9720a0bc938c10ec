package picture

import (
	"errors"
	"fmt"
)

// Mode selects how the pixel cells of an Image are interpreted.
type Mode uint8

const (
	Indexed Mode = iota // palette lookup
	Gray                // single 0-255 intensity
	RGB                 // three channels, alpha fixed opaque
	RGBA                // four channels
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case Indexed:
		return "indexed"
	case Gray:
		return "gray"
	case RGB:
		return "rgb"
	case RGBA:
		return "rgba"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

var (
	// ErrUnsupportedMode reports a conversion requested on a color mode it
	// does not define.
	ErrUnsupportedMode = errors.New("picture: unsupported color mode")

	// ErrTooManyColors reports that palette building found more than 256
	// distinct colors. The caller is expected to pre-quantize, for example
	// with MapToPalette.
	ErrTooManyColors = errors.New("picture: more than 256 distinct colors")

	// ErrBadIndex reports a pixel referencing an index outside the palette.
	ErrBadIndex = errors.New("picture: palette index out of range")
)

// Color is a single color with 8-bit channels.
type Color struct {
	R, G, B, A uint8
}

// NewColor returns an opaque color from three channels.
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 0xff}
}

// NewColorA returns a color with an explicit alpha channel.
func NewColorA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Pixel is one grid cell. The four bytes are reinterpreted according to the
// owning image's Mode: Indexed and Gray images use channel 0 only.
type Pixel struct {
	R, G, B, A uint8
}

// Image is the canonical pixel representation produced and consumed by every
// codec in this module.
//
// Conversion methods mutate the image in place and may replace the palette.
// Use Clone to retain the original.
type Image struct {
	Width  int
	Height int
	Mode   Mode

	// Palette is present only in Indexed mode. Entry order is significant:
	// it is the order colors appear on disk.
	Palette []Color

	// Pix holds Height rows of Width cells, row 0 at the top.
	Pix [][]Pixel
}

// New allocates a zeroed image. Indexed images start with an empty palette.
func New(width, height int, mode Mode) *Image {
	img := &Image{
		Width:  width,
		Height: height,
		Mode:   mode,
		Pix:    make([][]Pixel, height),
	}
	for y := range img.Pix {
		img.Pix[y] = make([]Pixel, width)
	}
	return img
}

// Clone returns a deep copy: the palette and every pixel row are
// independently allocated.
func (img *Image) Clone() *Image {
	out := &Image{
		Width:  img.Width,
		Height: img.Height,
		Mode:   img.Mode,
		Pix:    make([][]Pixel, img.Height),
	}
	if img.Palette != nil {
		out.Palette = make([]Color, len(img.Palette))
		copy(out.Palette, img.Palette)
	}
	for y := range img.Pix {
		out.Pix[y] = make([]Pixel, img.Width)
		copy(out.Pix[y], img.Pix[y])
	}
	return out
}

func (img *Image) mustMode(op string, want ...Mode) {
	for _, m := range want {
		if img.Mode == m {
			return
		}
	}
	panic("picture: " + op + " on " + img.Mode.String() + " image")
}

// ColorAt returns the color of the cell at (x, y). Valid for RGB and RGBA
// images.
func (img *Image) ColorAt(x, y int) Color {
	img.mustMode("ColorAt", RGB, RGBA)
	p := img.Pix[y][x]
	return Color{R: p.R, G: p.G, B: p.B, A: p.A}
}

// SetColor sets the cell at (x, y). Valid for RGB and RGBA images.
func (img *Image) SetColor(x, y int, c Color) {
	img.mustMode("SetColor", RGB, RGBA)
	img.Pix[y][x] = Pixel{R: c.R, G: c.G, B: c.B, A: c.A}
}

// GrayAt returns the intensity of the cell at (x, y) of a Gray image.
func (img *Image) GrayAt(x, y int) uint8 {
	img.mustMode("GrayAt", Gray)
	return img.Pix[y][x].R
}

// SetGray sets the intensity of the cell at (x, y) of a Gray image.
func (img *Image) SetGray(x, y int, g uint8) {
	img.mustMode("SetGray", Gray)
	img.Pix[y][x] = Pixel{R: g}
}

// IndexAt returns the palette index of the cell at (x, y) of an Indexed
// image.
func (img *Image) IndexAt(x, y int) uint8 {
	img.mustMode("IndexAt", Indexed)
	return img.Pix[y][x].R
}

// SetIndex sets the palette index of the cell at (x, y) of an Indexed image.
func (img *Image) SetIndex(x, y int, i uint8) {
	img.mustMode("SetIndex", Indexed)
	img.Pix[y][x] = Pixel{R: i}
}

// ResolveAt returns the effective color of the cell at (x, y) under any
// mode, looking indices up in the palette and expanding intensities.
// Out-of-range indices resolve to the zero color.
func (img *Image) ResolveAt(x, y int) Color {
	p := img.Pix[y][x]
	switch img.Mode {
	case Indexed:
		if int(p.R) >= len(img.Palette) {
			return Color{}
		}
		return img.Palette[p.R]
	case Gray:
		return NewColor(p.R, p.R, p.R)
	default:
		return Color{R: p.R, G: p.G, B: p.B, A: p.A}
	}
}
