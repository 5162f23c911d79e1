package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestThumbnail_FillsTargetSizeAsJPEG(t *testing.T) {
	p := New()

	out, err := p.Thumbnail(context.Background(), pngBytes(t, 200, 200), 64, 36, 80)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 36, cfg.Height)
}

func TestThumbnail_InvalidInput(t *testing.T) {
	p := New()

	_, err := p.Thumbnail(context.Background(), []byte("not an image"), 64, 36, 80)
	assert.Error(t, err)

	_, err = p.Thumbnail(context.Background(), pngBytes(t, 10, 10), 0, 36, 80)
	assert.Error(t, err)
}

func TestThumbnail_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Thumbnail(ctx, pngBytes(t, 20, 20), 10, 10, 80)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInspect(t *testing.T) {
	p := New()

	info, err := p.Inspect(pngBytes(t, 30, 20))
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 30, info.Width)
	assert.Equal(t, 20, info.Height)

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(12, 8, color.White), imaging.BMP))
	info, err = p.Inspect(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "bmp", info.Format)

	_, err = p.Inspect([]byte("plain text"))
	assert.Error(t, err)
}
