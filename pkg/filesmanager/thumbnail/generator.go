// Package thumbnail derives fixed-width previews of image objects and runs
// the background worker that produces them from queued jobs.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

// DefaultJPEGQuality is used when re-encoding JPEG sources
const DefaultJPEGQuality = 80

// Generator resizes encoded images
type Generator struct {
	JPEGQuality int
}

// NewGenerator creates a generator with default settings
func NewGenerator() *Generator {
	return &Generator{JPEGQuality: DefaultJPEGQuality}
}

// Decode parses an encoded image and reports its format
func (g *Generator) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Resize scales img to width, preserving aspect ratio, and encodes it in
// format. Formats other than jpeg and gif are written as png.
func (g *Generator) Resize(img image.Image, format string, width int) ([]byte, error) {
	if width <= 0 {
		return nil, errors.New("width must be positive")
	}

	scaled := resize.Resize(uint(width), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		quality := g.JPEGQuality
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality})
	case "gif":
		err = gif.Encode(&buf, scaled, nil)
	default:
		err = png.Encode(&buf, scaled)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s thumbnail: %w", format, err)
	}

	return buf.Bytes(), nil
}

// Thumbnail decodes data and returns it resized to width
func (g *Generator) Thumbnail(data []byte, width int) ([]byte, error) {
	img, format, err := g.Decode(data)
	if err != nil {
		return nil, err
	}
	return g.Resize(img, format, width)
}
