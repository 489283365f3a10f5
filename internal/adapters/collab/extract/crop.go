package extract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
)

// CropRegion cuts the region described by a normalized bounding box out of a
// PNG page raster and re-encodes it. Coordinates are fractions of the page
// size, so the same box applies to any render resolution.
func CropRegion(pagePNG []byte, box model.BBox) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pagePNG))
	if err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	rect := image.Rect(
		bounds.Min.X+int(box.X*w),
		bounds.Min.Y+int(box.Y*h),
		bounds.Min.X+int((box.X+box.W)*w),
		bounds.Min.Y+int((box.Y+box.H)*h),
	).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("bounding box (%.3f,%.3f %.3fx%.3f) outside page", box.X, box.Y, box.W, box.H)
	}

	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("page image type %T does not support cropping", img)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, si.SubImage(rect)); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	return buf.Bytes(), nil
}
