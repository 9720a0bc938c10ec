package bmp

import (
	"fmt"
	"io"

	"github.com/pixfmt/imgconv/internal/picture"
)

// Decode reads a BMP image from r. The reader never seeks: gaps between the
// header, palette and pixel data are consumed and discarded, so any
// io.Reader works.
//
// Indexed files (1, 4 and 8 bits) decode to Indexed mode, 16- and 24-bit
// files and 32-bit files without an alpha mask decode to RGB, and 32-bit
// files with an alpha mask decode to RGBA. Rows always come back
// top-to-bottom regardless of the stored row order.
func Decode(r io.Reader) (*picture.Image, error) {
	h, consumed, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var pal []picture.Color
	if h.bitCount <= 8 {
		pal, err = h.readPalette(r, &consumed)
		if err != nil {
			return nil, err
		}
	}

	if gap := int(h.offBits) - consumed; gap > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(gap)); err != nil {
			return nil, fmt.Errorf("%w: %d-byte gap before pixel data", ErrTruncated, gap)
		}
	} else if gap < 0 {
		return nil, fmt.Errorf("%w: pixel offset %d inside header", ErrInvalidHeader, h.offBits)
	}

	mode := picture.Indexed
	if h.bitCount > 8 {
		mode = picture.RGB
		if h.masks[3].mask != 0 {
			mode = picture.RGBA
		}
	}
	img := picture.New(int(h.width), h.rows(), mode)
	img.Palette = pal

	if h.compression == biRLE4 || h.compression == biRLE8 {
		err = decodeRLE(r, h, img)
	} else {
		err = decodeRows(r, h, img)
	}
	if err != nil {
		return nil, err
	}

	if h.topDown() {
		flipRows(img)
	}
	return img, nil
}

// readPalette reads the color table that sits between the info header and
// the pixel data. The table size is derived from the pixel offset; a table
// smaller than the header's declared color count is rejected.
func (h *header) readPalette(r io.Reader, consumed *int) ([]picture.Color, error) {
	colorSize := 4
	if h.infoSize == coreHeaderSize {
		colorSize = 3
	}
	avail := int(h.offBits) - *consumed
	if avail < 0 {
		return nil, fmt.Errorf("%w: pixel offset %d inside header", ErrInvalidHeader, h.offBits)
	}
	num := avail / colorSize
	if uint32(num) < h.clrUsed {
		return nil, fmt.Errorf("%w: color table holds %d of %d declared entries", ErrInvalidHeader, num, h.clrUsed)
	}
	if max := 1 << h.bitCount; num > max {
		num = max
	}
	if h.clrUsed != 0 && int(h.clrUsed) < num {
		num = int(h.clrUsed)
	}

	buf := make([]byte, num*colorSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: color table", ErrTruncated)
	}
	*consumed += len(buf)

	pal := make([]picture.Color, num)
	for i := range pal {
		e := buf[i*colorSize:]
		pal[i] = picture.NewColor(e[2], e[1], e[0])
	}
	return pal, nil
}

// decodeRows reads the uncompressed pixel array, stored bottom-up in
// 4-byte-aligned rows.
func decodeRows(r io.Reader, h *header, img *picture.Image) error {
	row := make([]byte, h.stride())
	for y := img.Height - 1; y >= 0; y-- {
		if _, err := io.ReadFull(r, row); err != nil {
			return fmt.Errorf("%w: row %d", ErrTruncated, y)
		}
		switch h.bitCount {
		case 32:
			decodeRow32(row, h, img.Pix[y])
		case 24:
			decodeRow24(row, img.Pix[y])
		case 16:
			decodeRow16(row, h, img.Pix[y])
		default:
			decodeRowIndexed(row, h.bitCount, img.Pix[y])
		}
	}
	return nil
}

func decodeRow32(row []byte, h *header, out []picture.Pixel) {
	for x := range out {
		word := uint32(row[4*x]) | uint32(row[4*x+1])<<8 |
			uint32(row[4*x+2])<<16 | uint32(row[4*x+3])<<24
		out[x] = maskPixel(word, h)
	}
}

func decodeRow24(row []byte, out []picture.Pixel) {
	for x := range out {
		out[x] = picture.Pixel{R: row[3*x+2], G: row[3*x+1], B: row[3*x], A: 0xff}
	}
}

func decodeRow16(row []byte, h *header, out []picture.Pixel) {
	for x := range out {
		word := uint32(row[2*x]) | uint32(row[2*x+1])<<8
		out[x] = maskPixel(word, h)
	}
}

// maskPixel pulls the channels of one packed pixel word through the header's
// masks. An absent alpha mask means opaque.
func maskPixel(word uint32, h *header) picture.Pixel {
	p := picture.Pixel{
		R: h.masks[0].extract(word),
		G: h.masks[1].extract(word),
		B: h.masks[2].extract(word),
		A: 0xff,
	}
	if h.masks[3].mask != 0 {
		p.A = h.masks[3].extract(word)
	}
	return p
}

// decodeRowIndexed unpacks 1-, 4- or 8-bit palette indices, most significant
// bits first within each byte.
func decodeRowIndexed(row []byte, bitCount uint16, out []picture.Pixel) {
	bc := uint(bitCount)
	for x := range out {
		bit := uint(x) * bc
		idx := row[bit/8] >> (8 - bc - bit%8) & (1<<bc - 1)
		out[x] = picture.Pixel{R: idx}
	}
}

// flipRows reverses the row order of a decoded top-down file so the image
// reads top-to-bottom like every other decode result.
func flipRows(img *picture.Image) {
	for i, j := 0, img.Height-1; i < j; i, j = i+1, j-1 {
		img.Pix[i], img.Pix[j] = img.Pix[j], img.Pix[i]
	}
}
