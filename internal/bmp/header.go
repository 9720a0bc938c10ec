package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
)

const (
	fileHeaderSize  = 14
	coreHeaderSize  = 12  // OS/2 BITMAPCOREHEADER
	infoHeaderSize  = 40  // BITMAPINFOHEADER
	info2HeaderSize = 64  // OS/2 BITMAPINFOHEADER2
	v4HeaderSize    = 108 // BITMAPV4HEADER
	v5HeaderSize    = 124 // BITMAPV5HEADER

	maxPaletteSize = 4 * 256
	// Largest plausible pixel-data offset: file header, biggest info header
	// and a full palette.
	maxOffBits = fileHeaderSize + v5HeaderSize + maxPaletteSize
)

// Compression tags.
const (
	biRGB = iota
	biRLE8
	biRLE4
	biBitFields
)

// V5 color-space constants used on the write path.
const (
	lcsSRGB       = 0x73524742 // "sRGB"
	lcsGMGraphics = 2
)

var (
	// ErrInvalidHeader reports a malformed or internally inconsistent BMP
	// header. Nothing past the header is read.
	ErrInvalidHeader = errors.New("bmp: invalid header")

	// ErrUnsupportedHeader reports an info-header size this codec does not
	// define.
	ErrUnsupportedHeader = errors.New("bmp: unsupported header dialect")

	// ErrTruncated reports pixel or RLE payload shorter than the header
	// promises, or an RLE stream referencing cells outside the image.
	ErrTruncated = errors.New("bmp: truncated pixel data")
)

// channelMask extracts one 8-bit channel from a packed 16- or 32-bit pixel
// word. An empty mask leaves max at 0xff so extraction stays defined and
// yields zero; callers treat an empty alpha mask as fully opaque.
type channelMask struct {
	mask  uint32
	shift uint
	max   uint32
}

func makeMask(m uint32) channelMask {
	cm := channelMask{mask: m, max: 0xff}
	if m == 0 {
		return cm
	}
	cm.shift = uint(bits.TrailingZeros32(m))
	if mx := m >> cm.shift; mx != 0 {
		cm.max = mx
	}
	return cm
}

// extract scales the masked field to 0..255, rounding to nearest.
func (cm channelMask) extract(word uint32) uint8 {
	return uint8((((word & cm.mask) >> cm.shift) * 255 + cm.max/2) / cm.max)
}

// defaultMasks returns the implied channel layout of uncompressed 16- and
// 32-bit pixels: X8R8G8B8 and X1R5G5B5.
func defaultMasks(bitCount uint16) [4]channelMask {
	switch bitCount {
	case 32:
		return [4]channelMask{
			makeMask(0x00ff0000),
			makeMask(0x0000ff00),
			makeMask(0x000000ff),
			makeMask(0),
		}
	case 16:
		return [4]channelMask{
			makeMask(0x7c00),
			makeMask(0x03e0),
			makeMask(0x001f),
			makeMask(0),
		}
	}
	return [4]channelMask{makeMask(0), makeMask(0), makeMask(0), makeMask(0)}
}

// header collects everything the row and RLE codecs need from the two
// on-disk header records. It exists only during a read or write.
type header struct {
	offBits  uint32
	infoSize uint32

	width       int32
	height      int32
	planes      uint16
	bitCount    uint16
	compression uint32
	sizeImage   uint32
	clrUsed     uint32

	// masks hold the R, G, B, A extraction state for 16/32-bit pixels.
	masks [4]channelMask
}

func readFullHeader(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("bmp: reading header: %w", err)
	}
	return nil
}

// readHeader parses the file header and whichever info-header dialect
// follows it. It returns the parsed header and the number of bytes consumed
// from r.
func readHeader(r io.Reader) (*header, int, error) {
	var buf [fileHeaderSize + v5HeaderSize]byte
	if err := readFullHeader(r, buf[:fileHeaderSize+4]); err != nil {
		return nil, 0, err
	}
	if buf[0] != 'B' || buf[1] != 'M' {
		return nil, 0, fmt.Errorf("%w: bad signature", ErrInvalidHeader)
	}
	h := &header{
		offBits:  binary.LittleEndian.Uint32(buf[10:]),
		infoSize: binary.LittleEndian.Uint32(buf[14:]),
	}
	if h.offBits > maxOffBits {
		return nil, 0, fmt.Errorf("%w: pixel offset %d", ErrInvalidHeader, h.offBits)
	}
	switch h.infoSize {
	case coreHeaderSize, infoHeaderSize, info2HeaderSize, v4HeaderSize, v5HeaderSize:
	default:
		return nil, 0, fmt.Errorf("%w: info header size %d", ErrUnsupportedHeader, h.infoSize)
	}
	if err := readFullHeader(r, buf[fileHeaderSize+4:fileHeaderSize+h.infoSize]); err != nil {
		return nil, 0, err
	}
	consumed := fileHeaderSize + int(h.infoSize)

	info := buf[fileHeaderSize:]
	if h.infoSize == coreHeaderSize {
		// Legacy dialect: 16-bit dimensions, no compression, no masks.
		h.width = int32(binary.LittleEndian.Uint16(info[4:]))
		h.height = int32(binary.LittleEndian.Uint16(info[6:]))
		h.planes = binary.LittleEndian.Uint16(info[8:])
		h.bitCount = binary.LittleEndian.Uint16(info[10:])
	} else {
		h.width = int32(binary.LittleEndian.Uint32(info[4:]))
		h.height = int32(binary.LittleEndian.Uint32(info[8:]))
		h.planes = binary.LittleEndian.Uint16(info[12:])
		h.bitCount = binary.LittleEndian.Uint16(info[14:])
		h.compression = binary.LittleEndian.Uint32(info[16:])
		h.sizeImage = binary.LittleEndian.Uint32(info[20:])
		h.clrUsed = binary.LittleEndian.Uint32(info[32:])

		switch {
		case h.compression == biBitFields && h.infoSize <= info2HeaderSize:
			// The three masks sit between the info header and the pixel
			// data, in what is otherwise palette space.
			if int64(h.offBits)-fileHeaderSize-int64(h.infoSize) < 12 {
				return nil, 0, fmt.Errorf("%w: no room for color masks", ErrInvalidHeader)
			}
			var mbuf [12]byte
			if err := readFullHeader(r, mbuf[:]); err != nil {
				return nil, 0, err
			}
			consumed += 12
			h.masks[0] = makeMask(binary.LittleEndian.Uint32(mbuf[0:]))
			h.masks[1] = makeMask(binary.LittleEndian.Uint32(mbuf[4:]))
			h.masks[2] = makeMask(binary.LittleEndian.Uint32(mbuf[8:]))
			h.masks[3] = makeMask(0)
		case h.compression == biBitFields:
			// V4/V5 embed all four masks; the color-space, gamma and
			// profile fields after them are read and discarded.
			h.masks[0] = makeMask(binary.LittleEndian.Uint32(info[40:]))
			h.masks[1] = makeMask(binary.LittleEndian.Uint32(info[44:]))
			h.masks[2] = makeMask(binary.LittleEndian.Uint32(info[48:]))
			h.masks[3] = makeMask(binary.LittleEndian.Uint32(info[52:]))
		case h.compression == biRGB:
			h.masks = defaultMasks(h.bitCount)
		}
	}

	if err := h.validate(); err != nil {
		return nil, 0, err
	}
	return h, consumed, nil
}

func (h *header) validate() error {
	switch h.bitCount {
	case 1, 4, 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit count %d", ErrInvalidHeader, h.bitCount)
	}
	ok := h.compression == biRGB ||
		(h.compression == biRLE4 && h.bitCount == 4) ||
		(h.compression == biRLE8 && h.bitCount == 8) ||
		(h.compression == biBitFields && (h.bitCount == 16 || h.bitCount == 32))
	if !ok {
		return fmt.Errorf("%w: compression %d with %d bpp", ErrInvalidHeader, h.compression, h.bitCount)
	}
	if h.width <= 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidHeader, h.width)
	}
	// Height may be negative (top-down) but must be negatable.
	if h.height == 0 || h.height == math.MinInt32 {
		return fmt.Errorf("%w: height %d", ErrInvalidHeader, h.height)
	}
	return nil
}

func (h *header) topDown() bool {
	return h.height < 0
}

func (h *header) rows() int {
	if h.height < 0 {
		return int(-h.height)
	}
	return int(h.height)
}

// stride is the 4-byte-aligned length of one uncompressed pixel row.
func (h *header) stride() int {
	return (int(h.width)*int(h.bitCount) + 31) / 32 * 4
}
