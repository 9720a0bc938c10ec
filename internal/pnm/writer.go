package pnm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pixfmt/imgconv/internal/picture"
)

// Encode writes img to w in the requested netpbm variant, maxval 255.
//
// When the image mode does not match the variant a clone is converted first:
// P1/P4 binarize through grayscale unless the image already carries a
// two-entry palette, P2/P5 convert to grayscale, P3/P6 to RGB. The caller's
// image is never modified.
func Encode(w io.Writer, img *picture.Image, format Format) error {
	switch format {
	case P1, P4:
		if !(img.Mode == picture.Indexed && len(img.Palette) == 2) {
			img = img.Clone()
			if err := img.ToGray(); err != nil {
				return err
			}
			if err := img.ToBinary(); err != nil {
				return err
			}
		}
	case P2, P5:
		if img.Mode != picture.Gray {
			img = img.Clone()
			if err := img.ToGray(); err != nil {
				return err
			}
		}
	case P3, P6:
		if img.Mode != picture.RGB {
			img = img.Clone()
			if err := img.ToRGB(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("pnm: unknown format P%d", format)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P%d\n%d %d\n", format, img.Width, img.Height)
	if format != P1 && format != P4 {
		fmt.Fprintf(bw, "255\n")
	}
	switch format {
	case P1:
		writeP1(bw, img)
	case P2:
		writeP2(bw, img)
	case P3:
		writeP3(bw, img)
	case P4:
		writeP4(bw, img)
	case P5:
		writeP5(bw, img)
	case P6:
		writeP6(bw, img)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("pnm: writing image: %w", err)
	}
	return nil
}

// writeP1 emits one digit per pixel, breaking lines before they pass 70
// characters.
func writeP1(bw *bufio.Writer, img *picture.Image) {
	for y := 0; y < img.Height; y++ {
		line := 0
		for x := 0; x < img.Width; x++ {
			line++
			if line > 69 {
				bw.WriteByte('\n')
				line = 1
			}
			bw.WriteByte('0' + img.Pix[y][x].R)
		}
		bw.WriteByte('\n')
	}
}

func writeP2(bw *bufio.Writer, img *picture.Image) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			fmt.Fprintf(bw, "%d\n", img.Pix[y][x].R)
		}
	}
}

func writeP3(bw *bufio.Writer, img *picture.Image) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.Pix[y][x]
			fmt.Fprintf(bw, "%d %d %d\n", p.R, p.G, p.B)
		}
	}
}

// writeP4 packs one bit per pixel, most significant bit first, each row
// padded to a whole byte.
func writeP4(bw *bufio.Writer, img *picture.Image) {
	for y := 0; y < img.Height; y++ {
		shift := 8
		var tmp byte
		for x := 0; x < img.Width; x++ {
			shift--
			tmp |= img.Pix[y][x].R << shift
			if shift == 0 {
				bw.WriteByte(tmp)
				shift = 8
				tmp = 0
			}
		}
		if shift != 8 {
			bw.WriteByte(tmp)
		}
	}
}

func writeP5(bw *bufio.Writer, img *picture.Image) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			bw.WriteByte(img.Pix[y][x].R)
		}
	}
}

func writeP6(bw *bufio.Writer, img *picture.Image) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.Pix[y][x]
			bw.WriteByte(p.R)
			bw.WriteByte(p.G)
			bw.WriteByte(p.B)
		}
	}
}
