package scanner

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"Smart-Picking/domain"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qrPNG(t *testing.T, text string) []byte {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 240, 240, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, matrix))
	return buf.Bytes()
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: 128})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecoderReadsQRCode(t *testing.T) {
	code, err := NewDecoder().Decode(qrPNG(t, "B17"))
	require.NoError(t, err)
	assert.Equal(t, "B17", code)
}

func TestDecoderFailures(t *testing.T) {
	d := NewDecoder()

	_, err := d.Decode(blankPNG(t))
	assert.ErrorIs(t, err, domain.ErrNoCodeDecoded)

	_, err = d.Decode([]byte("plain text"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedImage)
}

func TestDecoderSharedAcrossGoroutines(t *testing.T) {
	d := NewDecoder()
	frames := [][]byte{qrPNG(t, "B17"), blankPNG(t), qrPNG(t, "Z1-12")}
	want := []string{"B17", "", "Z1-12"}

	const workers = 8
	var wg sync.WaitGroup
	got := make([][]string, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for round := 0; round < 3; round++ {
				for _, frame := range frames {
					code, _ := d.Decode(frame)
					got[w] = append(got[w], code)
				}
			}
		}(w)
	}
	wg.Wait()

	for w := range got {
		require.Len(t, got[w], 3*len(frames))
		for i, code := range got[w] {
			assert.Equal(t, want[i%len(frames)], code, "worker %d frame %d", w, i)
		}
	}
}

func TestStaticDecoder(t *testing.T) {
	d := &StaticDecoder{Codes: []string{"A", "", "B"}}

	code, err := d.Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, "A", code)

	_, err = d.Decode(nil)
	assert.ErrorIs(t, err, domain.ErrNoCodeDecoded)

	code, err = d.Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, "B", code)

	_, err = d.Decode(nil)
	assert.ErrorIs(t, err, domain.ErrNoCodeDecoded)
}

func TestNormalizePhoto(t *testing.T) {
	t.Run("png becomes jpeg on white", func(t *testing.T) {
		out, contentType, err := NormalizePhoto(blankPNG(t))
		require.NoError(t, err)
		assert.Equal(t, ContentTypeJPEG, contentType)

		img, err := jpeg.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())

		// half transparent red over white stays light
		r, g, _, _ := img.At(10, 10).RGBA()
		assert.Greater(t, r>>8, uint32(200))
		assert.Greater(t, g>>8, uint32(90))
	})

	t.Run("jpeg is kept", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)), nil))

		out, contentType, err := NormalizePhoto(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, ContentTypeJPEG, contentType)
		assert.Equal(t, buf.Bytes(), out)
	})

	t.Run("not an image", func(t *testing.T) {
		_, _, err := NormalizePhoto([]byte("%PDF-1.4"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedImage)
	})
}
