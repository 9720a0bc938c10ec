package bmp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pixfmt/imgconv/internal/picture"
)

// Options control the BMP write path.
type Options struct {
	// RLE requests run-length compression. It takes effect only when the
	// chosen bit depth is 4 or 8; other depths write uncompressed.
	RLE bool
}

// Encode writes img to w as a bottom-up BMP. The bit depth is chosen from
// the image alone: indexed images take 1, 4 or 8 bits depending on palette
// size, grayscale is converted to 8-bit indexed with an identity palette,
// RGB becomes 24-bit and RGBA a 32-bit V5 file with explicit channel masks.
//
// The image is not modified; grayscale input is cloned before conversion.
// An RLE payload is assembled in memory first so the header can carry its
// final size without seeking in w.
func Encode(w io.Writer, img *picture.Image, opts Options) error {
	if img.Mode == picture.Gray {
		img = img.Clone()
		if err := img.ToIndexed(); err != nil {
			return err
		}
	}

	var bc int
	switch img.Mode {
	case picture.Indexed:
		switch {
		case len(img.Palette) <= 2:
			bc = 1
		case len(img.Palette) <= 16:
			bc = 4
		default:
			bc = 8
		}
	case picture.RGB:
		bc = 24
	case picture.RGBA:
		bc = 32
	default:
		return fmt.Errorf("%w: bmp write on %s", picture.ErrUnsupportedMode, img.Mode)
	}
	rle := opts.RLE && (bc == 4 || bc == 8)

	sizeImage := (img.Width*bc + 31) / 32 * 4 * img.Height
	var payload *bytes.Buffer
	if rle {
		payload = new(bytes.Buffer)
		encodeRLE(payload, img, bc)
		sizeImage = payload.Len()
	}

	if err := writeHeader(w, img, bc, rle, sizeImage); err != nil {
		return err
	}
	if bc <= 8 {
		if err := writePalette(w, img.Palette, bc); err != nil {
			return err
		}
	}
	if rle {
		if _, err := w.Write(payload.Bytes()); err != nil {
			return fmt.Errorf("bmp: writing pixel data: %w", err)
		}
		return nil
	}
	return writeRows(w, img, bc)
}

// writeHeader emits the file header plus either the 40-byte info header or,
// for 32-bit output, the 124-byte V5 header with A8R8G8B8 masks, sRGB color
// space and graphics rendering intent.
func writeHeader(w io.Writer, img *picture.Image, bc int, rle bool, sizeImage int) error {
	infoSize := infoHeaderSize
	if bc == 32 {
		infoSize = v5HeaderSize
	}
	paletteSize := 0
	if bc <= 8 {
		paletteSize = 1 << bc * 4
	}
	headerSize := fileHeaderSize + infoSize

	buf := make([]byte, headerSize)
	le := binary.LittleEndian
	buf[0], buf[1] = 'B', 'M'
	le.PutUint32(buf[2:], uint32(headerSize+paletteSize+sizeImage))
	le.PutUint32(buf[10:], uint32(headerSize+paletteSize))

	info := buf[fileHeaderSize:]
	le.PutUint32(info[0:], uint32(infoSize))
	le.PutUint32(info[4:], uint32(img.Width))
	le.PutUint32(info[8:], uint32(img.Height))
	le.PutUint16(info[12:], 1)
	le.PutUint16(info[14:], uint16(bc))
	compression := uint32(biRGB)
	switch {
	case bc == 32:
		compression = biBitFields
	case rle && bc == 8:
		compression = biRLE8
	case rle && bc == 4:
		compression = biRLE4
	}
	le.PutUint32(info[16:], compression)
	le.PutUint32(info[20:], uint32(sizeImage))
	le.PutUint32(info[32:], uint32(len(img.Palette)))
	if bc == 32 {
		le.PutUint32(info[40:], 0xff000000) // red
		le.PutUint32(info[44:], 0x00ff0000) // green
		le.PutUint32(info[48:], 0x0000ff00) // blue
		le.PutUint32(info[52:], 0x000000ff) // alpha
		le.PutUint32(info[56:], lcsSRGB)
		le.PutUint32(info[108:], lcsGMGraphics)
	}

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("bmp: writing header: %w", err)
	}
	return nil
}

// writePalette emits the color table, zero-padded to the full 1<<bc entries.
func writePalette(w io.Writer, pal []picture.Color, bc int) error {
	buf := make([]byte, 1<<bc*4)
	for i, c := range pal {
		buf[4*i] = c.B
		buf[4*i+1] = c.G
		buf[4*i+2] = c.R
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("bmp: writing palette: %w", err)
	}
	return nil
}

// writeRows streams the uncompressed pixel array bottom-up, each row padded
// to a 4-byte boundary.
func writeRows(w io.Writer, img *picture.Image, bc int) error {
	stride := (img.Width*bc + 31) / 32 * 4
	row := make([]byte, stride)
	for y := img.Height - 1; y >= 0; y-- {
		switch bc {
		case 32:
			for x, p := range img.Pix[y] {
				row[4*x] = p.A
				row[4*x+1] = p.B
				row[4*x+2] = p.G
				row[4*x+3] = p.R
			}
		case 24:
			for x, p := range img.Pix[y] {
				row[3*x] = p.B
				row[3*x+1] = p.G
				row[3*x+2] = p.R
			}
		default:
			packRow(row, img.Pix[y], bc)
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("bmp: writing row %d: %w", y, err)
		}
	}
	return nil
}
