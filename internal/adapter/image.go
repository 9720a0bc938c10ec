package adapter

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/pixfmt/imgconv/internal/picture"
)

// FromStd converts a standard library image into the picture model.
// Paletted images keep their palette and become Indexed, grayscale images
// become Gray, everything else becomes RGBA through non-premultiplied color
// conversion.
func FromStd(src image.Image) *picture.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := src.(type) {
	case *image.Paletted:
		img := picture.New(w, h, picture.Indexed)
		img.Palette = make([]picture.Color, len(src.Palette))
		for i, c := range src.Palette {
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			img.Palette[i] = picture.NewColorA(n.R, n.G, n.B, n.A)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Pix[y][x] = picture.Pixel{R: src.ColorIndexAt(b.Min.X+x, b.Min.Y+y)}
			}
		}
		return img
	case *image.Gray:
		img := picture.New(w, h, picture.Gray)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Pix[y][x] = picture.Pixel{R: src.GrayAt(b.Min.X+x, b.Min.Y+y).Y}
			}
		}
		return img
	default:
		img := picture.New(w, h, picture.RGBA)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				n := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				img.Pix[y][x] = picture.Pixel{R: n.R, G: n.G, B: n.B, A: n.A}
			}
		}
		return img
	}
}

// ToStd converts a picture into the closest standard library representation:
// Indexed to *image.Paletted, Gray to *image.Gray, RGB and RGBA to
// *image.NRGBA.
func ToStd(img *picture.Image) image.Image {
	r := image.Rect(0, 0, img.Width, img.Height)
	switch img.Mode {
	case picture.Indexed:
		pal := make(color.Palette, len(img.Palette))
		for i, c := range img.Palette {
			pal[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		}
		out := image.NewPaletted(r, pal)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				out.SetColorIndex(x, y, img.Pix[y][x].R)
			}
		}
		return out
	case picture.Gray:
		out := image.NewGray(r)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				out.SetGray(x, y, color.Gray{Y: img.Pix[y][x].R})
			}
		}
		return out
	default:
		out := image.NewNRGBA(r)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				p := img.Pix[y][x]
				out.SetNRGBA(x, y, color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A})
			}
		}
		return out
	}
}

// DecodeAny reads an image in any format registered with the image package
// and returns it with the detected format name.
func DecodeAny(r io.Reader) (*picture.Image, string, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("adapter: decoding image: %w", err)
	}
	return FromStd(src), format, nil
}
