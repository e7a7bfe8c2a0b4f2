package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage(w, h)))
	return buf.Bytes()
}

func TestGenerator_Thumbnail(t *testing.T) {
	g := NewGenerator()

	var jpegBuf, gifBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, sampleImage(400, 300), nil))
	require.NoError(t, gif.Encode(&gifBuf, sampleImage(400, 300), nil))

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{name: "png", data: encodePNG(t, 400, 300), format: "png"},
		{name: "jpeg", data: jpegBuf.Bytes(), format: "jpeg"},
		{name: "gif", data: gifBuf.Bytes(), format: "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, width := range []int{100, 250, 500} {
				out, err := g.Thumbnail(tt.data, width)
				require.NoError(t, err)

				cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
				require.NoError(t, err)
				assert.Equal(t, tt.format, format)
				assert.Equal(t, width, cfg.Width)
				assert.InDelta(t, float64(width)*0.75, float64(cfg.Height), 1, "aspect ratio is preserved")
			}
		})
	}
}

func TestGenerator_Errors(t *testing.T) {
	g := NewGenerator()

	_, err := g.Thumbnail([]byte("definitely not an image"), 100)
	assert.Error(t, err)

	_, err = g.Thumbnail(encodePNG(t, 10, 10), 0)
	assert.Error(t, err)
}
