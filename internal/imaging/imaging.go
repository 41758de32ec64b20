// Package imaging is the raster capability: load, save, resize, crop, paste and
// labelled text on top of the standard image types.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ErrUnknownFormat is returned by Save for extensions other than png/jpg/jpeg.
var ErrUnknownFormat = errors.New("unknown image format")

// JPEGQuality is used for every JPEG written by Save.
const JPEGQuality = 90

// Load decodes a PNG or JPEG file.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// Save encodes img by the extension of path, replacing any existing file.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if ext == ".png" {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// NewCanvas returns a w×h image filled with bg.
func NewCanvas(w, h int, bg color.Color) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return canvas
}

// Resize scales src to exactly w×h.
func Resize(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ResizeToWidth scales src to width w keeping its aspect ratio.
func ResizeToWidth(src image.Image, w int) *image.RGBA {
	b := src.Bounds()
	if b.Dx() == 0 {
		return image.NewRGBA(image.Rect(0, 0, w, 0))
	}
	h := b.Dy() * w / b.Dx()
	return Resize(src, w, h)
}

// Crop copies the part of src inside r into a new image anchored at (0,0).
// r is clipped to src's bounds.
func Crop(src image.Image, r image.Rectangle) *image.RGBA {
	r = r.Intersect(src.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

// Paste copies src onto dst with its top-left corner at at.
func Paste(dst draw.Image, src image.Image, at image.Point) {
	sb := src.Bounds()
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(sb.Size())}, src, sb.Min, draw.Src)
}

// Size returns the dimensions of img, or the zero point when img is nil.
func Size(img image.Image) image.Point {
	if img == nil {
		return image.Point{}
	}
	return img.Bounds().Size()
}
