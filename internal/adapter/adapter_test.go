package adapter

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/pixfmt/imgconv/internal/picture"
)

func rgbaPattern(width, height int) *picture.Image {
	img := picture.New(width, height, picture.RGBA)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetColor(x, y, picture.NewColorA(uint8(x*40), uint8(y*50), uint8(x+y), uint8(255-x*30)))
		}
	}
	return img
}

func TestFromStdPaletted(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, A: 255},
		color.NRGBA{G: 255, A: 255},
	}
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	src.SetColorIndex(1, 0, 1)

	img := FromStd(src)
	if img.Mode != picture.Indexed || len(img.Palette) != 2 {
		t.Fatalf("got mode %s with %d palette entries", img.Mode, len(img.Palette))
	}
	if img.IndexAt(0, 0) != 0 || img.IndexAt(1, 0) != 1 {
		t.Errorf("indices: got (%d,%d), want (0,1)", img.IndexAt(0, 0), img.IndexAt(1, 0))
	}
	if img.Palette[1] != picture.NewColor(0, 255, 0) {
		t.Errorf("palette[1]: got %+v, want green", img.Palette[1])
	}
}

func TestFromStdGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(1, 0, color.Gray{Y: 200})

	img := FromStd(src)
	if img.Mode != picture.Gray {
		t.Fatalf("Mode: got %s, want gray", img.Mode)
	}
	if got := img.GrayAt(1, 0); got != 200 {
		t.Errorf("GrayAt(1,0): got %d, want 200", got)
	}
}

func TestFromStdOffsetBounds(t *testing.T) {
	// Sub-images carry non-zero bounds; the conversion must rebase to 0,0.
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 2, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	sub := src.SubImage(image.Rect(2, 2, 4, 4)).(*image.NRGBA)

	img := FromStd(sub)
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("size: got %dx%d, want 2x2", img.Width, img.Height)
	}
	if got := img.ColorAt(0, 0); got != picture.NewColor(9, 8, 7) {
		t.Errorf("ColorAt(0,0): got %+v, want (9,8,7)", got)
	}
}

func TestPNGRoundTrip(t *testing.T) {
	indexed := picture.New(4, 3, picture.Indexed)
	indexed.Palette = []picture.Color{
		picture.NewColor(255, 0, 0),
		picture.NewColor(0, 0, 255),
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			indexed.SetIndex(x, y, uint8((x+y)%2))
		}
	}
	gray := picture.New(4, 3, picture.Gray)
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			gray.SetGray(x, y, uint8(x*60+y*20))
		}
	}

	tests := []struct {
		name string
		img  *picture.Image
	}{
		{"indexed", indexed},
		{"gray", gray},
		{"rgba", rgbaPattern(4, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := EncodePNG(&buf, tt.img); err != nil {
				t.Fatalf("EncodePNG failed: %v", err)
			}
			got, err := DecodePNG(&buf)
			if err != nil {
				t.Fatalf("DecodePNG failed: %v", err)
			}
			if got.Mode != tt.img.Mode {
				t.Fatalf("Mode: got %s, want %s", got.Mode, tt.img.Mode)
			}
			for y := 0; y < tt.img.Height; y++ {
				for x := 0; x < tt.img.Width; x++ {
					if g, w := got.ResolveAt(x, y), tt.img.ResolveAt(x, y); g != w {
						t.Fatalf("pixel (%d,%d): got %+v, want %+v", x, y, g, w)
					}
				}
			}
		})
	}
}

func TestJPEGRoundTripLossy(t *testing.T) {
	img := picture.New(16, 16, picture.RGB)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetColor(x, y, picture.NewColor(200, 30, 60))
		}
	}
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, 90); err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	got, err := DecodeJPEG(&buf)
	if err != nil {
		t.Fatalf("DecodeJPEG failed: %v", err)
	}
	if got.Mode != picture.RGB {
		t.Fatalf("Mode: got %s, want rgb", got.Mode)
	}
	if got.Width != 16 || got.Height != 16 {
		t.Fatalf("size: got %dx%d, want 16x16", got.Width, got.Height)
	}
	// JPEG is lossy; allow a small per-channel deviation on the flat fill.
	c := got.ColorAt(8, 8)
	want := picture.NewColor(200, 30, 60)
	for i, d := range []int{int(c.R) - int(want.R), int(c.G) - int(want.G), int(c.B) - int(want.B)} {
		if d < -8 || d > 8 {
			t.Errorf("channel %d off by %d: got %+v, want about %+v", i, d, c, want)
		}
	}
}

func TestEncodeJPEGConvertsClone(t *testing.T) {
	img := rgbaPattern(8, 8)
	var buf bytes.Buffer
	if err := EncodeJPEG(&buf, img, 90); err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if img.Mode != picture.RGBA {
		t.Errorf("source image was modified, mode now %s", img.Mode)
	}
}

func TestDecodeAny(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, rgbaPattern(3, 3)); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, format, err := DecodeAny(&buf)
	if err != nil {
		t.Fatalf("DecodeAny failed: %v", err)
	}
	if format != "png" {
		t.Errorf("format: got %q, want png", format)
	}
	if img.Width != 3 || img.Height != 3 {
		t.Errorf("size: got %dx%d, want 3x3", img.Width, img.Height)
	}
}
