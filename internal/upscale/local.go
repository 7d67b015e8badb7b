package upscale

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Local upscales images in-process with Catmull-Rom resampling. It is the
// default backend when no remote upscaler is configured and the reason the
// pool is sized for CPU work.
type Local struct {
	// JPEGQuality applies when re-encoding JPEG sources. Zero means the
	// encoder default.
	JPEGQuality int
}

// NewLocal returns a Local upscaler with sensible encoding quality.
func NewLocal() *Local {
	return &Local{JPEGQuality: 90}
}

// Upscale decodes the image, resamples it scale-times larger, and re-encodes
// it in its original format. Only JPEG and PNG sources are supported.
func (l *Local) Upscale(ctx context.Context, data []byte, scale int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	if scale < 2 {
		return nil, fmt.Errorf("invalid scale %d", scale)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*scale, bounds.Dy()*scale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		quality := l.JPEGQuality
		if quality <= 0 {
			quality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode upscaled image: %w", err)
	}

	return buf.Bytes(), nil
}
