package bmp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/pixfmt/imgconv/internal/picture"
)

func TestEncodeRLE8AbsoluteWidth3(t *testing.T) {
	// Width 3 with three distinct indices forces one absolute record; its
	// pixel count must be exactly 3, never padded up.
	img := indexedPattern(3, 1, 20)
	img.SetIndex(0, 0, 5)
	img.SetIndex(1, 0, 6)
	img.SetIndex(2, 0, 7)

	var buf bytes.Buffer
	encodeRLE(&buf, img, 8)
	want := []byte{
		0, 3, 5, 6, 7, 0, // absolute record, padded to even length
		0, 1, // end of bitmap
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("stream: got % x, want % x", buf.Bytes(), want)
	}
}

func TestEncodeRLE4Width3Clamp(t *testing.T) {
	// Width 3 at 4 bpp: the second raw byte covers only one pixel, so the
	// record for it must claim 1 pixel, not 2.
	img := indexedPattern(3, 1, 5)
	img.SetIndex(0, 0, 1)
	img.SetIndex(1, 0, 2)
	img.SetIndex(2, 0, 3)

	var buf bytes.Buffer
	encodeRLE(&buf, img, 4)
	want := []byte{
		2, 0x12, // two pixels from byte 0x12
		1, 0x30, // one pixel from byte 0x30
		0, 1, // end of bitmap
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("stream: got % x, want % x", buf.Bytes(), want)
	}
}

func TestEncodeRLE8Runs(t *testing.T) {
	// A long uniform row compresses to one encoded record per row.
	img := picture.New(10, 2, picture.Indexed)
	img.Palette = make([]picture.Color, 20)
	for y := 0; y < 2; y++ {
		for x := 0; x < 10; x++ {
			img.SetIndex(x, y, 9)
		}
	}
	var buf bytes.Buffer
	encodeRLE(&buf, img, 8)
	want := []byte{
		10, 9, // bottom row
		0, 0, // end of line
		10, 9, // top row
		0, 1, // end of bitmap
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("stream: got % x, want % x", buf.Bytes(), want)
	}
}

func TestRLERoundTripAdversarial(t *testing.T) {
	// Mixed runs and noise across both depths and odd widths.
	tests := []struct {
		name string
		n    int // palette size picks the depth
		w, h int
	}{
		{"rle8 noisy", 20, 13, 7},
		{"rle8 width1", 17, 1, 4},
		{"rle4 noisy", 5, 11, 6},
		{"rle4 width1", 4, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := indexedPattern(tt.w, tt.h, tt.n)
			var buf bytes.Buffer
			if err := Encode(&buf, img, Options{RLE: true}); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			sameResolved(t, got, img)
		})
	}
}

// makeRLE8BMP wraps a raw RLE8 record stream in a minimal header with an
// empty color table.
func makeRLE8BMP(width, height int32, stream []byte) []byte {
	return makeInfoBMP(width, height, 8, biRLE8, 0, nil, stream)
}

func TestDecodeRLE8Records(t *testing.T) {
	// Bottom row: run of two 5s. EOL, then on the top row one 7, a delta
	// skipping one column, one 8.
	stream := []byte{
		2, 5,
		0, 0, // end of line
		1, 7,
		0, 2, 1, 0, // delta +1 column
		1, 8,
		0, 1, // end of bitmap
	}
	img, err := Decode(bytes.NewReader(makeRLE8BMP(4, 2, stream)))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := [2][4]uint8{
		{7, 0, 8, 0}, // top
		{5, 5, 0, 0}, // bottom
	}
	for y := range want {
		for x, w := range want[y] {
			if got := img.IndexAt(x, y); got != w {
				t.Errorf("IndexAt(%d,%d): got %d, want %d", x, y, got, w)
			}
		}
	}
}

func TestDecodeRLE4SubValueCycling(t *testing.T) {
	// An RLE4 encoded run cycles the two nibbles of its value byte.
	stream := []byte{
		5, 0x12,
		0, 1,
	}
	data := makeInfoBMP(5, 1, 4, biRLE4, 0, nil, stream)
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for x, w := range []uint8{1, 2, 1, 2, 1} {
		if got := img.IndexAt(x, 0); got != w {
			t.Errorf("IndexAt(%d): got %d, want %d", x, got, w)
		}
	}
}

func TestDecodeRLEErrors(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
	}{
		{"run past right edge", []byte{5, 1, 0, 1}},
		{"write below row zero", []byte{0, 0, 0, 0, 1, 1, 0, 1}},
		{"delta out of range", []byte{0, 2, 0, 5, 0, 1}},
		{"absolute past right edge", []byte{0, 5, 1, 2, 3, 4, 5, 0, 0, 1}},
		{"missing records", []byte{2, 5}},
		{"short absolute payload", []byte{0, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(makeRLE8BMP(4, 2, tt.stream)))
			if !errors.Is(err, ErrTruncated) {
				t.Errorf("got %v, want ErrTruncated", err)
			}
		})
	}
}

func TestPackRow(t *testing.T) {
	row := []picture.Pixel{{R: 1}, {R: 2}, {R: 3}}
	dst := make([]byte, 2)
	packRow(dst, row, 4)
	if dst[0] != 0x12 || dst[1] != 0x30 {
		t.Errorf("got %#x %#x, want 0x12 0x30", dst[0], dst[1])
	}
}
