package bmp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pixfmt/imgconv/internal/picture"
)

// decodeRLE reads an RLE4 or RLE8 record stream into img. The cursor starts
// at the bottom row; end-of-line moves it up, delta records jump it. Unlike
// the uncompressed path there is no trailing row padding, so the stream is
// consumed record by record until end-of-bitmap.
//
// The decoder is strict: a run that would pass the right edge, a write below
// row zero, or a short read all fail with ErrTruncated.
func decodeRLE(r io.Reader, h *header, img *picture.Image) error {
	bc := int(h.bitCount)
	cpb := 8 / bc
	mask := byte(1<<bc - 1)
	width := img.Width

	x, y := 0, img.Height-1
	var buf [256]byte
	for {
		if _, err := io.ReadFull(r, buf[:2]); err != nil {
			return fmt.Errorf("%w: rle record", ErrTruncated)
		}
		count, value := int(buf[0]), buf[1]
		switch {
		case count > 0: // encoded run, sub-values cycled from value
			if y < 0 || x+count > width {
				return fmt.Errorf("%w: rle run at (%d,%d) length %d", ErrTruncated, x, y, count)
			}
			for i := 0; i < count; i++ {
				shift := 8 - bc - i%cpb*bc
				img.Pix[y][x] = picture.Pixel{R: value >> shift & mask}
				x++
			}
		case value == 0: // end of line
			x = 0
			y--
		case value == 1: // end of bitmap
			return nil
		case value == 2: // delta
			if _, err := io.ReadFull(r, buf[:2]); err != nil {
				return fmt.Errorf("%w: rle delta", ErrTruncated)
			}
			x += int(buf[0])
			y -= int(buf[1])
			if x > width || y < 0 {
				return fmt.Errorf("%w: rle delta to (%d,%d)", ErrTruncated, x, y)
			}
		default: // absolute run of literal indices
			n := int(value)
			c := (n*bc + 15) / 16 * 2 // payload is 2-byte aligned
			if y < 0 || x+n > width {
				return fmt.Errorf("%w: rle absolute run at (%d,%d) length %d", ErrTruncated, x, y, n)
			}
			if _, err := io.ReadFull(r, buf[:c]); err != nil {
				return fmt.Errorf("%w: rle absolute payload", ErrTruncated)
			}
			for i := 0; i < n; i++ {
				bit := i * bc
				img.Pix[y][x] = picture.Pixel{R: buf[bit/8] >> (8 - bc - bit%8) & mask}
				x++
			}
		}
	}
}

// encodeRLE compresses an indexed image into buf as an RLE4 or RLE8 record
// stream, rows bottom-up.
//
// Each row is first packed into raw index bytes, then split into maximal
// runs of identical bytes (capped so a record's pixel count fits in one
// byte). A run of two or more bytes becomes an encoded record. Shorter runs
// are gathered; once more than two of the gathered bytes are non-repeating
// an absolute record is cheaper than a string of tiny encoded records,
// otherwise the tiny records are emitted as-is. A record's pixel count is
// trimmed by one when the row width is not a multiple of the packing factor
// so no record ever claims pixels past the right edge.
func encodeRLE(buf *bytes.Buffer, img *picture.Image, bc int) {
	cpb := 8 / bc
	countMax := 255 / cpb
	stride := (img.Width*bc + 7) / 8
	raw := make([]byte, stride)
	step := make([]int, stride)

	for y := img.Height - 1; y >= 0; y-- {
		packRow(raw, img.Pix[y], bc)

		var count int
		for x := 0; x < stride; x += count {
			count = 0
			for x+count < stride && count < countMax && raw[x+count] == raw[x] {
				count++
			}
			step[x] = count
		}

		for x := 0; x < stride; x += count {
			if step[x] >= 2 {
				count = step[x]
				writeRun(buf, clampNum(count*cpb, x*cpb, img.Width), raw[x])
				continue
			}
			count = 0
			reduction := 0
			for x+count < stride && count < countMax && step[x+count] <= 2 {
				if step[x+count] == 1 {
					reduction++
				}
				count += step[x+count]
			}
			if count*cpb > 255 { // keep the pixel count a single byte
				count -= 2
			}
			if reduction > 2 {
				buf.WriteByte(0)
				buf.WriteByte(byte(clampNum(count*cpb, x*cpb, img.Width)))
				buf.Write(raw[x : x+count])
				if count%2 == 1 {
					buf.WriteByte(0)
				}
			} else {
				for i := x; i < x+count; i += step[i] {
					writeRun(buf, clampNum(step[i]*cpb, i*cpb, img.Width), raw[i])
				}
			}
		}

		if y == 0 { // end of bitmap
			buf.WriteByte(0)
			buf.WriteByte(1)
		} else { // end of line
			buf.WriteByte(0)
			buf.WriteByte(0)
		}
	}
}

// clampNum trims a record's pixel count when the last raw byte of the row is
// only partially covered by the image width.
func clampNum(num, startPixels, width int) int {
	if num+startPixels > width {
		num--
	}
	return num
}

func writeRun(buf *bytes.Buffer, num int, value byte) {
	buf.WriteByte(byte(num))
	buf.WriteByte(value)
}

// packRow packs one row of palette indices into raw bytes, most significant
// bits first, with no alignment padding.
func packRow(dst []byte, row []picture.Pixel, bc int) {
	shift := 8
	var tmp byte
	di := 0
	for x := range row {
		shift -= bc
		tmp |= row[x].R << shift
		if shift == 0 {
			dst[di] = tmp
			di++
			shift = 8
			tmp = 0
		}
	}
	if shift != 8 {
		dst[di] = tmp
	}
}
