package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"

	// Formats accepted for registration and gallery images besides the
	// jpeg/png/gif decoders imaging already registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/disintegration/imaging"
)

const (
	_defaultQuality = 80

	maxPixels = 50_000_000
)

type ImageProcessor struct {
}

func New() *ImageProcessor {
	return &ImageProcessor{}
}

// Thumbnail scales and crops data to exactly width x height and encodes the
// result as JPEG.
func (p *ImageProcessor) Thumbnail(ctx context.Context, data []byte, width, height, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail: invalid size %dx%d", width, height)
	}
	if quality <= 0 || quality > 100 {
		quality = _defaultQuality
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - decodeImage: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail: %w", err)
	}

	thumb := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	res, err := encodeJPEG(thumb, quality)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Thumbnail - encodeJPEG: %w", err)
	}

	return res, nil
}

// Inspect reads only the image header.
func (p *ImageProcessor) Inspect(data []byte) (dto.ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return dto.ImageInfo{}, fmt.Errorf("ImageProcessor - Inspect - image.DecodeConfig: %w", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return dto.ImageInfo{}, fmt.Errorf("ImageProcessor - Inspect: unsupported dimensions %dx%d", cfg.Width, cfg.Height)
	}

	return dto.ImageInfo{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - decodeImage - imaging.Decode: %w", err)
	}

	return img, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer

	err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - encodeJPEG - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
