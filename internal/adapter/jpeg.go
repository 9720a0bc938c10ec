package adapter

import (
	"fmt"
	"image/jpeg"
	"io"

	"github.com/pixfmt/imgconv/internal/picture"
)

// DefaultJPEGQuality is used when the caller passes a quality outside 1..100.
const DefaultJPEGQuality = jpeg.DefaultQuality

// DecodeJPEG reads a JPEG image. The result is always RGB.
func DecodeJPEG(r io.Reader) (*picture.Image, error) {
	src, err := jpeg.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("adapter: decoding jpeg: %w", err)
	}
	img := FromStd(src)
	if err := img.ToRGB(); err != nil {
		return nil, err
	}
	return img, nil
}

// EncodeJPEG writes img as a JPEG with the given quality. Images that are
// not RGB are converted on a clone first, so indexed and grayscale input
// round-trips through its palette and alpha is composited onto white.
func EncodeJPEG(w io.Writer, img *picture.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if img.Mode != picture.RGB {
		img = img.Clone()
		if err := img.ToRGB(); err != nil {
			return err
		}
	}
	if err := jpeg.Encode(w, ToStd(img), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("adapter: encoding jpeg: %w", err)
	}
	return nil
}
