package picture

import "fmt"

// ToIndexed converts the image to Indexed mode in place.
//
// Gray images get the fixed 256-entry identity palette; RGB images are
// quantized by the palette builder and fail with ErrTooManyColors when more
// than 256 distinct colors exist; RGBA images are composited onto opaque
// white first. Indexed images are left untouched.
func (img *Image) ToIndexed() error {
	switch img.Mode {
	case Indexed:
		return nil
	case Gray:
		img.grayToIndexed()
		return nil
	case RGB:
		return img.buildPalette()
	case RGBA:
		if err := img.CompositeOnto(NewColor(255, 255, 255)); err != nil {
			return err
		}
		return img.buildPalette()
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedMode, img.Mode)
}

// ToGray converts the image to Gray mode in place using ITU-R BT.601 luma
// weights. The transform is lossy and one-way. Indexed images are expanded
// through the palette first; RGBA images are composited onto opaque white.
func (img *Image) ToGray() error {
	switch img.Mode {
	case Indexed:
		if err := img.expandPalette(); err != nil {
			return err
		}
		img.rgbToGray()
		return nil
	case Gray:
		return nil
	case RGB:
		img.rgbToGray()
		return nil
	case RGBA:
		if err := img.CompositeOnto(NewColor(255, 255, 255)); err != nil {
			return err
		}
		img.rgbToGray()
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedMode, img.Mode)
}

// ToRGB converts the image to RGB mode in place. Indexed images fail with
// ErrBadIndex when a cell references past the palette; RGBA images are
// composited onto opaque white.
func (img *Image) ToRGB() error {
	switch img.Mode {
	case Indexed:
		return img.expandPalette()
	case Gray:
		img.grayToRGB()
		return nil
	case RGB:
		return nil
	case RGBA:
		return img.CompositeOnto(NewColor(255, 255, 255))
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedMode, img.Mode)
}

// ToRGBA converts the image to RGBA mode in place. Sources without an alpha
// channel become fully opaque; an existing alpha channel is kept.
func (img *Image) ToRGBA() error {
	switch img.Mode {
	case Indexed:
		if err := img.expandPalette(); err != nil {
			return err
		}
		img.Mode = RGBA
		return nil
	case Gray:
		img.grayToRGB()
		img.Mode = RGBA
		return nil
	case RGB:
		img.Mode = RGBA
		return nil
	case RGBA:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedMode, img.Mode)
}

// CompositeOnto alpha-blends an RGBA image onto bg in place, producing an
// RGB image. The background's own alpha is ignored and treated as opaque.
func (img *Image) CompositeOnto(bg Color) error {
	if img.Mode != RGBA {
		return fmt.Errorf("%w: composite on %s", ErrUnsupportedMode, img.Mode)
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := &img.Pix[y][x]
			a := uint32(p.A)
			p.R = uint8((uint32(p.R)*a + uint32(bg.R)*(0xff-a) + 0x7f) / 0xff)
			p.G = uint8((uint32(p.G)*a + uint32(bg.G)*(0xff-a) + 0x7f) / 0xff)
			p.B = uint8((uint32(p.B)*a + uint32(bg.B)*(0xff-a) + 0x7f) / 0xff)
			p.A = 0xff
		}
	}
	img.Mode = RGB
	return nil
}

// ToBinary converts a Gray image to a two-color Indexed image in place:
// intensities below 128 map to index 1 (black), the rest to index 0 (white).
func (img *Image) ToBinary() error {
	if img.Mode != Gray {
		return fmt.Errorf("%w: binarize on %s", ErrUnsupportedMode, img.Mode)
	}
	img.Palette = []Color{NewColor(255, 255, 255), NewColor(0, 0, 0)}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := &img.Pix[y][x]
			if p.R < 128 {
				*p = Pixel{R: 1}
			} else {
				*p = Pixel{}
			}
		}
	}
	img.Mode = Indexed
	return nil
}

// expandPalette replaces every index cell with its palette color and drops
// the palette.
func (img *Image) expandPalette() error {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := &img.Pix[y][x]
			if int(p.R) >= len(img.Palette) {
				return fmt.Errorf("%w: index %d, palette %d", ErrBadIndex, p.R, len(img.Palette))
			}
			c := img.Palette[p.R]
			*p = Pixel{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	img.Mode = RGB
	img.Palette = nil
	return nil
}

// grayToIndexed attaches the identity grayscale palette: every intensity
// becomes its own index, so the cell bytes do not change.
func (img *Image) grayToIndexed() {
	pal := make([]Color, 256)
	for i := range pal {
		pal[i] = NewColor(uint8(i), uint8(i), uint8(i))
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.Pix[y][x] = Pixel{R: img.Pix[y][x].R}
		}
	}
	img.Mode = Indexed
	img.Palette = pal
}

func (img *Image) grayToRGB() {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			g := img.Pix[y][x].R
			img.Pix[y][x] = Pixel{R: g, G: g, B: g, A: 0xff}
		}
	}
	img.Mode = RGB
}

func (img *Image) rgbToGray() {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := &img.Pix[y][x]
			// ITU-R BT.601 luma, rounded to nearest (ties up).
			g := uint8(0.299*float64(p.R) + 0.587*float64(p.G) + 0.114*float64(p.B) + 0.5)
			*p = Pixel{R: g}
		}
	}
	img.Mode = Gray
}
