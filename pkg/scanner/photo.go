package scanner

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/utils/storage"
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	ContentTypeJPEG = "image/jpeg"
	jpegQuality     = 85
)

// NormalizePhoto returns data as a JPEG. JPEG input is kept byte for byte; other
// accepted formats are flattened onto white and re-encoded.
func NormalizePhoto(data []byte) ([]byte, string, error) {
	contentType, ok := storage.DetectContentType(data, storage.AllowImage...)
	if !ok {
		return nil, "", domain.ErrUnsupportedImage
	}
	if contentType == ContentTypeJPEG {
		return data, ContentTypeJPEG, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", domain.ErrUnsupportedImage
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), ContentTypeJPEG, nil
}
