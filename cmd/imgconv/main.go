package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"

	"github.com/pixfmt/imgconv/internal/adapter"
	"github.com/pixfmt/imgconv/internal/bmp"
	"github.com/pixfmt/imgconv/internal/picture"
	"github.com/pixfmt/imgconv/internal/pnm"

	// Extra decoders for the generic-read fallback.
	_ "image/gif"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type cli struct {
	Input  string `arg:"" help:"Input image file." type:"existingfile"`
	Output string `arg:"" help:"Output image file; the extension selects the format."`

	RLE        bool    `help:"Compress BMP output with RLE (effective for 4- and 8-bit indexed output only)."`
	PNMType    int     `name:"pnm-type" help:"PNM variant to write (1-6); by default pbm=4, pgm=5, ppm=6."`
	Resize     string  `help:"Resize to WxH before writing (Lanczos)." placeholder:"WxH"`
	Brightness float64 `help:"Adjust brightness, -1 to 1."`
	Contrast   float64 `help:"Adjust contrast, -1 to 1."`
	Quantize   bool    `help:"Map colors onto the 216-entry web-safe palette."`
	Gray       bool    `help:"Convert to grayscale."`
	Index      bool    `help:"Convert to indexed color (fails above 256 distinct colors; see --quantize)."`
	Quality    int     `help:"JPEG output quality (1-100)." default:"75"`

	Version kong.VersionFlag `short:"v" help:"Print version information."`
}

func main() {
	var c cli
	kong.Parse(&c,
		kong.Name("imgconv"),
		kong.Description("Convert images between BMP, PNM (PBM/PGM/PPM), PNG and JPEG."),
		kong.Vars{
			"version": fmt.Sprintf("imgconv %s (built %s, commit %s)", Version, BuildTime, GitCommit),
		},
	)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(&c, logger); err != nil {
		logger.Error("conversion failed", "error", err)
		os.Exit(1)
	}
}

func run(c *cli, logger *slog.Logger) error {
	img, format, err := readInput(c.Input)
	if err != nil {
		return err
	}
	logger.Info("read input",
		"file", c.Input, "format", format,
		"width", img.Width, "height", img.Height, "mode", img.Mode.String())

	if c.Resize != "" {
		if img, err = resize(img, c.Resize); err != nil {
			return err
		}
	}
	if c.Brightness != 0 {
		img = adapter.FromStd(adjust.Brightness(adapter.ToStd(img), c.Brightness))
	}
	if c.Contrast != 0 {
		img = adapter.FromStd(adjust.Contrast(adapter.ToStd(img), c.Contrast))
	}
	if c.Quantize {
		if err := img.ToRGB(); err != nil {
			return err
		}
		if err := img.MapToPalette(picture.WebSafePalette()); err != nil {
			return err
		}
	}
	if c.Gray {
		if err := img.ToGray(); err != nil {
			return err
		}
	}
	if c.Index {
		if err := img.ToIndexed(); err != nil {
			return err
		}
	}
	return writeOutput(c, img, logger)
}

func readInput(path string) (*picture.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	switch ext(path) {
	case ".bmp":
		img, err := bmp.Decode(f)
		return img, "bmp", err
	case ".pbm", ".pgm", ".ppm", ".pnm":
		img, err := pnm.Decode(f)
		return img, "pnm", err
	case ".png":
		img, err := adapter.DecodePNG(f)
		return img, "png", err
	case ".jpg", ".jpeg":
		img, err := adapter.DecodeJPEG(f)
		return img, "jpeg", err
	default:
		return adapter.DecodeAny(f)
	}
}

func writeOutput(c *cli, img *picture.Image, logger *slog.Logger) error {
	format, err := pnmFormat(c)
	if err != nil {
		return err
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	switch ext(c.Output) {
	case ".bmp":
		err = bmp.Encode(f, img, bmp.Options{RLE: c.RLE})
	case ".pbm", ".pgm", ".ppm", ".pnm":
		err = pnm.Encode(f, img, format)
	case ".png":
		err = adapter.EncodePNG(f, img)
	case ".jpg", ".jpeg":
		err = adapter.EncodeJPEG(f, img, c.Quality)
	default:
		err = fmt.Errorf("unsupported output extension %q", ext(c.Output))
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		logger.Info("wrote output", "file", c.Output, "mode", img.Mode.String())
	}
	return err
}

// pnmFormat picks the PNM variant: an explicit --pnm-type wins, otherwise
// the output extension decides, with the binary variant of each format.
func pnmFormat(c *cli) (pnm.Format, error) {
	if c.PNMType != 0 {
		if c.PNMType < 1 || c.PNMType > 6 {
			return 0, fmt.Errorf("invalid --pnm-type %d, want 1-6", c.PNMType)
		}
		return pnm.Format(c.PNMType), nil
	}
	switch ext(c.Output) {
	case ".pbm":
		return pnm.P4, nil
	case ".pgm":
		return pnm.P5, nil
	default:
		return pnm.P6, nil
	}
}

func resize(img *picture.Image, size string) (*picture.Image, error) {
	var w, h int
	if n, err := fmt.Sscanf(size, "%dx%d", &w, &h); n != 2 || err != nil || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid --resize %q, want WxH", size)
	}
	return adapter.FromStd(imaging.Resize(adapter.ToStd(img), w, h, imaging.Lanczos)), nil
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
