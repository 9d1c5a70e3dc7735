package scanner

import (
	"Smart-Picking/domain"
	"bytes"
	"image"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder reads one barcode or QR code from a camera frame.
type Decoder interface {
	Decode(data []byte) (string, error)
}

type zxingDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewDecoder tries QR first, then the linear symbologies found on shelf and product labels.
func NewDecoder() Decoder {
	return &zxingDecoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// newReaders is called per frame: zxing readers keep decode state and are not safe to share.
func newReaders() []gozxing.Reader {
	return []gozxing.Reader{
		qrcode.NewQRCodeReader(),
		oned.NewEAN13Reader(),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
	}
}

func (d *zxingDecoder) Decode(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", domain.ErrUnsupportedImage
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", domain.ErrNoCodeDecoded
	}

	for _, reader := range newReaders() {
		result, err := reader.Decode(bmp, d.hints)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(result.GetText()); text != "" {
			return text, nil
		}
	}
	return "", domain.ErrNoCodeDecoded
}

// StaticDecoder returns fixed codes in turn. It stands in for a camera in local runs and tests.
type StaticDecoder struct {
	Codes []string
	next  int
}

func (s *StaticDecoder) Decode(_ []byte) (string, error) {
	if s.next >= len(s.Codes) {
		return "", domain.ErrNoCodeDecoded
	}
	code := s.Codes[s.next]
	s.next++
	if code == "" {
		return "", domain.ErrNoCodeDecoded
	}
	return code, nil
}
