package adapter

import (
	"fmt"
	"image/png"
	"io"

	"github.com/pixfmt/imgconv/internal/picture"
)

// DecodePNG reads a PNG image. Paletted and grayscale files keep their
// modes; truecolor files come back as RGBA.
func DecodePNG(r io.Reader) (*picture.Image, error) {
	src, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("adapter: decoding png: %w", err)
	}
	return FromStd(src), nil
}

// EncodePNG writes img as a PNG, preserving its mode.
func EncodePNG(w io.Writer, img *picture.Image) error {
	if err := png.Encode(w, ToStd(img)); err != nil {
		return fmt.Errorf("adapter: encoding png: %w", err)
	}
	return nil
}
