// Package imagestore normalizes uploaded photos before they are written to blob storage.
package imagestore

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"surf-market/internal/model"
)

const (
	MaxUploadBytes = 10 << 20
	MaxDimension   = 1600
	JPEGQuality    = 80
	ContentType    = "image/jpeg"
)

// Compress decodes a JPEG, PNG or GIF, applies EXIF orientation, shrinks it to fit
// MaxDimension (never enlarging) and re-encodes it as JPEG.
func Compress(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnsupportedImage, err)
	}

	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flatten(img), imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten paints transparent pixels onto white so PNG cut-outs don't turn black as JPEG.
func flatten(img image.Image) image.Image {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), image.White.C)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
