package pnm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/pixfmt/imgconv/internal/picture"
)

// Format identifies one of the six netpbm variants by its magic number.
type Format int

const (
	P1 Format = iota + 1 // ASCII bitmap
	P2                   // ASCII graymap
	P3                   // ASCII pixmap
	P4                   // binary bitmap
	P5                   // binary graymap
	P6                   // binary pixmap
)

// ErrSyntax reports a malformed header token, an out-of-range value or
// sample data that ends early.
var ErrSyntax = errors.New("pnm: syntax error")

// Decode reads a PNM image from r, detecting the variant from the magic
// number. Samples are scaled from the declared maxval to 0..255, rounding to
// nearest; maxvals above 255 use two-byte big-endian samples in the binary
// variants.
func Decode(r io.Reader) (*picture.Image, error) {
	br := bufio.NewReader(r)
	magic, err := nextToken(br)
	if err != nil || len(magic) != 2 || magic[0] != 'P' || magic[1] < '1' || magic[1] > '6' {
		return nil, fmt.Errorf("%w: bad magic %q", ErrSyntax, magic)
	}
	format := Format(magic[1] - '0')

	width, err := nextInt(br)
	if err != nil {
		return nil, err
	}
	height, err := nextInt(br)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrSyntax, width, height)
	}
	max := 1
	if format != P1 && format != P4 {
		max, err = nextInt(br)
		if err != nil {
			return nil, err
		}
		if max < 1 || max > 65535 {
			return nil, fmt.Errorf("%w: maxval %d", ErrSyntax, max)
		}
	}

	var img *picture.Image
	switch format {
	case P1, P4:
		img = picture.New(width, height, picture.Indexed)
		img.Palette = []picture.Color{
			picture.NewColor(255, 255, 255),
			picture.NewColor(0, 0, 0),
		}
	case P2, P5:
		img = picture.New(width, height, picture.Gray)
	case P3, P6:
		img = picture.New(width, height, picture.RGB)
	}

	switch format {
	case P1:
		err = readP1(br, img)
	case P2:
		err = readP2(br, img, max)
	case P3:
		err = readP3(br, img, max)
	case P4:
		err = readP4(br, img)
	case P5:
		err = readP5(br, img, max)
	case P6:
		err = readP6(br, img, max)
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func readP1(br *bufio.Reader, img *picture.Image) error {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c, err := nextNonSpace(br)
			if err != nil || (c != '0' && c != '1') {
				return fmt.Errorf("%w: bitmap digit at (%d,%d)", ErrSyntax, x, y)
			}
			img.Pix[y][x] = picture.Pixel{R: c - '0'}
		}
	}
	return nil
}

func readP2(br *bufio.Reader, img *picture.Image, max int) error {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v, err := nextInt(br)
			if err != nil {
				return err
			}
			img.Pix[y][x] = picture.Pixel{R: normalize(v, max)}
		}
	}
	return nil
}

func readP3(br *bufio.Reader, img *picture.Image, max int) error {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			var s [3]int
			for i := range s {
				v, err := nextInt(br)
				if err != nil {
					return err
				}
				s[i] = v
			}
			img.Pix[y][x] = picture.Pixel{
				R: normalize(s[0], max),
				G: normalize(s[1], max),
				B: normalize(s[2], max),
				A: 0xff,
			}
		}
	}
	return nil
}

func readP4(br *bufio.Reader, img *picture.Image) error {
	row := make([]byte, (img.Width+7)/8)
	for y := 0; y < img.Height; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return fmt.Errorf("%w: bitmap row %d ends early", ErrSyntax, y)
		}
		for x := 0; x < img.Width; x++ {
			img.Pix[y][x] = picture.Pixel{R: row[x/8] >> (7 - x%8) & 1}
		}
	}
	return nil
}

func readP5(br *bufio.Reader, img *picture.Image, max int) error {
	bpc := 1
	if max > 255 {
		bpc = 2
	}
	row := make([]byte, img.Width*bpc)
	for y := 0; y < img.Height; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return fmt.Errorf("%w: graymap row %d ends early", ErrSyntax, y)
		}
		for x := 0; x < img.Width; x++ {
			img.Pix[y][x] = picture.Pixel{R: normalize(sample(row, x, bpc), max)}
		}
	}
	return nil
}

func readP6(br *bufio.Reader, img *picture.Image, max int) error {
	bpc := 1
	if max > 255 {
		bpc = 2
	}
	row := make([]byte, img.Width*3*bpc)
	for y := 0; y < img.Height; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return fmt.Errorf("%w: pixmap row %d ends early", ErrSyntax, y)
		}
		for x := 0; x < img.Width; x++ {
			img.Pix[y][x] = picture.Pixel{
				R: normalize(sample(row, 3*x, bpc), max),
				G: normalize(sample(row, 3*x+1, bpc), max),
				B: normalize(sample(row, 3*x+2, bpc), max),
				A: 0xff,
			}
		}
	}
	return nil
}

// sample reads the i-th sample of a packed row, two-byte samples big-endian.
func sample(row []byte, i, bpc int) int {
	if bpc == 1 {
		return int(row[i])
	}
	return int(row[2*i])<<8 | int(row[2*i+1])
}

// normalize scales a 0..max sample to 0..255, rounding to nearest. Samples
// above max clamp to max.
func normalize(v, max int) uint8 {
	if v > max {
		v = max
	}
	return uint8((v*255 + max/2) / max)
}

// nextNonSpace returns the next byte that is neither whitespace nor part of
// a # comment running to end of line.
func nextNonSpace(br *bufio.Reader) (byte, error) {
	comment := false
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if comment {
			if c == '\n' || c == '\r' {
				comment = false
			}
			continue
		}
		if c == '#' {
			comment = true
			continue
		}
		if !isSpace(c) {
			return c, nil
		}
	}
}

// nextToken returns the next whitespace-delimited token, consuming the
// delimiter after it.
func nextToken(br *bufio.Reader) (string, error) {
	c, err := nextNonSpace(br)
	if err != nil {
		return "", err
	}
	tok := []byte{c}
	for {
		c, err = br.ReadByte()
		if err != nil || isSpace(c) {
			return string(tok), nil
		}
		tok = append(tok, c)
	}
}

// nextInt parses the next token as a nonnegative decimal integer. Any
// non-digit character makes the token invalid.
func nextInt(br *bufio.Reader) (int, error) {
	tok, err := nextToken(br)
	if err != nil {
		return 0, fmt.Errorf("%w: missing integer", ErrSyntax)
	}
	n := 0
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q is not a number", ErrSyntax, tok)
		}
		n = n*10 + int(c-'0')
		if n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %q out of range", ErrSyntax, tok)
		}
	}
	return n, nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
