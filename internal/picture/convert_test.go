package picture

import (
	"errors"
	"testing"
)

// fillRGB creates an RGB test image painted with a single color
func fillRGB(width, height int, c Color) *Image {
	img := New(width, height, RGB)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetColor(x, y, c)
		}
	}
	return img
}

func TestToGrayLuma(t *testing.T) {
	tests := []struct {
		name string
		in   Color
		want uint8
	}{
		{"mixed", NewColor(100, 150, 200), 141},
		{"black", NewColor(0, 0, 0), 0},
		{"white", NewColor(255, 255, 255), 255},
		{"red", NewColor(255, 0, 0), 76},
		{"green", NewColor(0, 255, 0), 150},
		{"blue", NewColor(0, 0, 255), 29},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := fillRGB(2, 2, tt.in)
			if err := img.ToGray(); err != nil {
				t.Fatalf("ToGray failed: %v", err)
			}
			if got := img.GrayAt(1, 1); got != tt.want {
				t.Errorf("GrayAt: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompositeOnto(t *testing.T) {
	img := New(1, 1, RGBA)
	img.SetColor(0, 0, NewColorA(255, 0, 0, 128))

	if err := img.CompositeOnto(NewColor(255, 255, 255)); err != nil {
		t.Fatalf("CompositeOnto failed: %v", err)
	}
	if img.Mode != RGB {
		t.Errorf("Mode: got %s, want rgb", img.Mode)
	}
	got := img.ColorAt(0, 0)
	want := NewColor(255, 127, 127)
	if got != want {
		t.Errorf("ColorAt: got %+v, want %+v", got, want)
	}
}

func TestCompositeOntoWrongMode(t *testing.T) {
	img := New(1, 1, Gray)
	err := img.CompositeOnto(NewColor(0, 0, 0))
	if !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("got %v, want ErrUnsupportedMode", err)
	}
}

func TestConversionIdempotence(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		convert func(*Image) error
	}{
		{"gray", Gray, (*Image).ToGray},
		{"rgb", RGB, (*Image).ToRGB},
		{"rgba", RGBA, (*Image).ToRGBA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := New(3, 3, tt.mode)
			img.Pix[1][2] = Pixel{R: 10, G: 20, B: 30, A: 0xff}
			before := img.Clone()
			if err := tt.convert(img); err != nil {
				t.Fatalf("conversion failed: %v", err)
			}
			for y := 0; y < img.Height; y++ {
				for x := 0; x < img.Width; x++ {
					if img.Pix[y][x] != before.Pix[y][x] {
						t.Fatalf("pixel (%d,%d) changed: %+v != %+v", x, y, img.Pix[y][x], before.Pix[y][x])
					}
				}
			}
		})
	}
}

func TestToBinary(t *testing.T) {
	img := New(4, 1, Gray)
	for x, g := range []uint8{0, 127, 128, 255} {
		img.SetGray(x, 0, g)
	}
	if err := img.ToBinary(); err != nil {
		t.Fatalf("ToBinary failed: %v", err)
	}
	if img.Mode != Indexed || len(img.Palette) != 2 {
		t.Fatalf("got mode %s with %d palette entries, want indexed with 2", img.Mode, len(img.Palette))
	}
	if img.Palette[0] != NewColor(255, 255, 255) || img.Palette[1] != NewColor(0, 0, 0) {
		t.Errorf("palette: got %+v, want {white, black}", img.Palette)
	}
	// Intensities below 128 map to black (index 1).
	for x, want := range []uint8{1, 1, 0, 0} {
		if got := img.IndexAt(x, 0); got != want {
			t.Errorf("IndexAt(%d): got %d, want %d", x, got, want)
		}
	}
}

func TestToIndexedGrayIdentityPalette(t *testing.T) {
	img := New(2, 1, Gray)
	img.SetGray(0, 0, 42)
	img.SetGray(1, 0, 200)

	if err := img.ToIndexed(); err != nil {
		t.Fatalf("ToIndexed failed: %v", err)
	}
	if len(img.Palette) != 256 {
		t.Fatalf("palette size: got %d, want 256", len(img.Palette))
	}
	if img.IndexAt(0, 0) != 42 || img.IndexAt(1, 0) != 200 {
		t.Errorf("indices: got (%d,%d), want (42,200)", img.IndexAt(0, 0), img.IndexAt(1, 0))
	}
	if img.Palette[42] != NewColor(42, 42, 42) {
		t.Errorf("palette[42]: got %+v, want gray 42", img.Palette[42])
	}
}

func TestToRGBExpandsPalette(t *testing.T) {
	img := New(2, 1, Indexed)
	img.Palette = []Color{NewColor(10, 20, 30), NewColor(40, 50, 60)}
	img.SetIndex(0, 0, 1)
	img.SetIndex(1, 0, 0)

	if err := img.ToRGB(); err != nil {
		t.Fatalf("ToRGB failed: %v", err)
	}
	if got := img.ColorAt(0, 0); got != NewColor(40, 50, 60) {
		t.Errorf("ColorAt(0,0): got %+v, want (40,50,60)", got)
	}
	if img.Palette != nil {
		t.Errorf("palette not dropped after expansion")
	}
}

func TestToRGBBadIndex(t *testing.T) {
	img := New(1, 1, Indexed)
	img.Palette = []Color{NewColor(0, 0, 0)}
	img.SetIndex(0, 0, 5)

	if err := img.ToRGB(); !errors.Is(err, ErrBadIndex) {
		t.Errorf("got %v, want ErrBadIndex", err)
	}
}

func TestCloneIndependence(t *testing.T) {
	img := New(2, 2, Indexed)
	img.Palette = []Color{NewColor(1, 2, 3)}
	img.SetIndex(0, 0, 0)

	dup := img.Clone()
	dup.SetIndex(0, 0, 7)
	dup.Palette[0] = NewColor(9, 9, 9)

	if img.IndexAt(0, 0) != 0 {
		t.Errorf("clone shares pixel storage with original")
	}
	if img.Palette[0] != NewColor(1, 2, 3) {
		t.Errorf("clone shares palette storage with original")
	}
}

func TestAccessorPanicsOnWrongMode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("GrayAt on an rgb image did not panic")
		}
	}()
	fillRGB(1, 1, NewColor(0, 0, 0)).GrayAt(0, 0)
}

func TestResolveAt(t *testing.T) {
	img := New(2, 1, Indexed)
	img.Palette = []Color{NewColor(5, 6, 7)}
	img.SetIndex(0, 0, 0)
	img.Pix[0][1] = Pixel{R: 200} // out of range

	if got := img.ResolveAt(0, 0); got != NewColor(5, 6, 7) {
		t.Errorf("ResolveAt(0,0): got %+v, want (5,6,7)", got)
	}
	if got := img.ResolveAt(1, 0); got != (Color{}) {
		t.Errorf("ResolveAt(1,0): got %+v, want zero color", got)
	}
}
