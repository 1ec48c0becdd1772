// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imageconv re-encodes a single image into another format,
// optionally resizing it with Lanczos resampling.
package imageconv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	"github.com/go-playground/validator/v10"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Registers the WebP decoder with image.Decode.
	_ "golang.org/x/image/webp"
)

// Defaults applied by Normalize.
const (
	DefaultFormat  = "jpg"
	DefaultQuality = 80
)

// ErrUnsupportedFormat is returned for output formats with no encoder.
var ErrUnsupportedFormat = errors.New("unsupported format")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request describes one conversion. Width and Height of zero or less are
// ignored.
type Request struct {
	Input   string `validate:"required"`
	Output  string `validate:"required"`
	Format  string `validate:"required"`
	Quality int    `validate:"gte=1,lte=100"`
	Width   int
	Height  int
}

// Normalize lowercases the format and fills defaults.
func (r *Request) Normalize() {
	r.Format = strings.ToLower(strings.TrimSpace(r.Format))
	if r.Format == "" {
		r.Format = DefaultFormat
	}
	if r.Quality == 0 {
		r.Quality = DefaultQuality
	}
}

// OutputPath is where Convert writes: Output plus the format extension.
func (r Request) OutputPath() string {
	return r.Output + "." + r.Format
}

type encoder func(w io.Writer, img image.Image, quality int) error

var encoders = map[string]encoder{
	"jpg":  encodeJPEG,
	"jpeg": encodeJPEG,
	"png":  encodePNG,
	"gif": func(w io.Writer, img image.Image, _ int) error {
		return imaging.Encode(w, img, imaging.GIF, imaging.GIFNumColors(256))
	},
	"webp": func(w io.Writer, img image.Image, quality int) error {
		return webp.Encode(w, img, webp.Options{Quality: quality, Method: 6})
	},
	"bmp": func(w io.Writer, img image.Image, _ int) error {
		return bmp.Encode(w, img)
	},
	"tiff": encodeTIFF,
	"tif":  encodeTIFF,
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

func encodePNG(w io.Writer, img image.Image, _ int) error {
	level := png.DefaultCompression
	if opaque(img) {
		level = png.BestCompression
	}
	return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(level))
}

func encodeTIFF(w io.Writer, img image.Image, _ int) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// Supported reports whether format has an encoder.
func Supported(format string) bool {
	_, ok := encoders[strings.ToLower(format)]
	return ok
}

// Convert opens the input (honouring EXIF orientation), adapts its colour
// model to the target format, resizes it, and writes OutputPath. It
// returns the path written.
func Convert(ctx context.Context, req Request) (string, error) {
	req.Normalize()
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid request: %w", err)
	}
	enc, ok := encoders[req.Format]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := os.Stat(req.Input); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("input file does not exist: %s", req.Input)
	}
	img, err := imaging.Open(req.Input, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", req.Input, err)
	}

	img = convertMode(img, req.Format)
	img = resize(img, req.Width, req.Height)

	out := req.OutputPath()
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", out, err)
	}
	if err := enc(f, img, req.Quality); err != nil {
		f.Close()
		os.Remove(out)
		return "", fmt.Errorf("encoding %s: %w", req.Format, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", out, err)
	}
	return out, nil
}

// convertMode drops alpha for JPEG targets and expands paletted images to
// full colour for PNG targets.
func convertMode(img image.Image, format string) image.Image {
	switch format {
	case "jpg", "jpeg":
		if opaque(img) {
			if _, paletted := img.(*image.Paletted); !paletted {
				return img
			}
		}
		return dropAlpha(img)
	case "png":
		if _, paletted := img.(*image.Paletted); paletted {
			return imaging.Clone(img)
		}
	}
	return img
}

// dropAlpha keeps the straight colour channels and makes every pixel
// opaque.
func dropAlpha(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			c.A = 255
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// resize scales to both dimensions when both are positive, otherwise
// scales proportionally from whichever one is positive.
func resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch {
	case width > 0 && height > 0:
	case width > 0:
		height = max(1, int(math.Round(float64(h)*float64(width)/float64(w))))
	case height > 0:
		width = max(1, int(math.Round(float64(w)*float64(height)/float64(h))))
	default:
		return img
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
