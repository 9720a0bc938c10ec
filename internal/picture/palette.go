package picture

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// buildPalette is the RGB-to-Indexed quantization step: it collects the
// distinct colors of the image in first-seen order (exact 4-channel
// equality) and replaces every cell with the index of its color.
//
// The linear palette scan keeps insertion order, which becomes the on-disk
// palette order; with at most 256 entries it stays O(pixels * 256).
// On overflow the image has already been partially rewritten and is no
// longer usable for indexing.
func (img *Image) buildPalette() error {
	if img.Mode != RGB {
		return fmt.Errorf("%w: palette build on %s", ErrUnsupportedMode, img.Mode)
	}
	var pal []Color
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := &img.Pix[y][x]
			c := Color{R: p.R, G: p.G, B: p.B, A: p.A}
			i := 0
			for ; i < len(pal); i++ {
				if pal[i] == c {
					break
				}
			}
			if i == len(pal) {
				if len(pal) == 256 {
					return ErrTooManyColors
				}
				pal = append(pal, c)
			}
			*p = Pixel{R: uint8(i)}
		}
	}
	img.Mode = Indexed
	img.Palette = pal
	return nil
}

// MapToPalette converts an RGB image to Indexed mode by mapping every pixel
// to the perceptually nearest entry of pal (CIE Lab distance). Unlike
// ToIndexed it never fails on color count, so it serves as the
// pre-quantization step for images that overflow the 256-color cap.
func (img *Image) MapToPalette(pal []Color) error {
	if img.Mode != RGB {
		return fmt.Errorf("%w: palette map on %s", ErrUnsupportedMode, img.Mode)
	}
	if len(pal) == 0 || len(pal) > 256 {
		return fmt.Errorf("picture: palette size %d out of range 1..256", len(pal))
	}
	lab := make([]colorful.Color, len(pal))
	for i, c := range pal {
		lab[i] = toColorful(c)
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := &img.Pix[y][x]
			cc := toColorful(Color{R: p.R, G: p.G, B: p.B, A: 0xff})
			best, bestDist := 0, cc.DistanceLab(lab[0])
			for i := 1; i < len(lab); i++ {
				if d := cc.DistanceLab(lab[i]); d < bestDist {
					best, bestDist = i, d
				}
			}
			*p = Pixel{R: uint8(best)}
		}
	}
	img.Mode = Indexed
	img.Palette = make([]Color, len(pal))
	copy(img.Palette, pal)
	return nil
}

// WebSafePalette returns the classic 216-entry palette of all channel
// combinations over {0, 51, 102, 153, 204, 255}.
func WebSafePalette() []Color {
	pal := make([]Color, 0, 216)
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				pal = append(pal, NewColor(uint8(r*51), uint8(g*51), uint8(b*51)))
			}
		}
	}
	return pal
}

func toColorful(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
