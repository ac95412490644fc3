// Package imaging prepares downloaded page images for PDF embedding.
package imaging

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// Service converts and scales page images.
//
// MangaDex serves pages as JPEG, PNG, or WebP. The PDF writer embeds
// JPEG only, so every page goes through Prepare:
//
//	svc := imaging.NewService()
//	jpegData, w, h, err := svc.Prepare(raw, 2400)
type Service struct{}

// NewService creates a new image Service.
func NewService() *Service {
	return &Service{}
}

// Prepare decodes an image, downscales it to fit within maxDim on its
// longest side (0 disables scaling), and re-encodes it as JPEG. Returns
// the encoded bytes and the final pixel dimensions.
//
// The aspect ratio is preserved. The Catmull-Rom kernel is used for
// high-quality scaling.
func (s *Service) Prepare(data []byte, maxDim int) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if maxDim > 0 && (width > maxDim || height > maxDim) {
		ratio := float64(width) / float64(height)
		if width >= height {
			width = maxDim
			height = int(float64(maxDim) / ratio)
		} else {
			height = maxDim
			width = int(float64(maxDim) * ratio)
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, 0, 0, err
	}

	return buf.Bytes(), width, height, nil
}
