// Package imaging prepares uploaded images for the vision models: EXIF
// orientation is applied, the image is fitted inside a square bound and
// re-encoded as JPEG on a white background.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const (
	DefaultMaxDimension = 800
	DefaultQuality      = 70

	// MimeType is the type of every prepared image.
	MimeType = "image/jpeg"
)

// ErrUnsupportedImage is returned for data that is neither JPEG nor PNG.
var ErrUnsupportedImage = errors.New("imaging: unsupported image data")

// Options bounds the prepared image.
type Options struct {
	MaxDimension int
	Quality      int
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	return o
}

// Prepared is a re-encoded image.
type Prepared struct {
	Data   []byte
	Width  int
	Height int
}

// Prepare decodes data, applies its EXIF orientation, fits it within
// opts.MaxDimension on the long edge and encodes it as JPEG.
func Prepare(data []byte, opts Options) (Prepared, error) {
	opts = opts.withDefaults()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	img = Orient(img, Orientation(data))

	w, h := FitWithin(img.Bounds().Dx(), img.Bounds().Dy(), opts.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return Prepared{}, fmt.Errorf("imaging: encode: %w", err)
	}
	return Prepared{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// FitWithin scales w×h so the longer edge is at most bound, rounding the
// shorter edge. Images already inside the bound keep their size.
func FitWithin(w, h, bound int) (int, int) {
	if w <= bound && h <= bound {
		return w, h
	}
	if w > h {
		return bound, int(math.Max(1, math.Round(float64(h)*float64(bound)/float64(w))))
	}
	return int(math.Max(1, math.Round(float64(w)*float64(bound)/float64(h)))), bound
}

// Orientation returns the EXIF orientation tag of data, or 1.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Orient returns img transformed for display according to an EXIF
// orientation value. Orientation 1 and unknown values return img unchanged.
func Orient(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	swap := orientation >= 5
	dw, dh := w, h
	if swap {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
