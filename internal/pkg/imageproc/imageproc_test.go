package imageproc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func avatarOptions() Options {
	return Options{MaxBytes: 5 * 1024 * 1024, MaxDimension: 4096, OutputSize: 512, Mode: SquareCrop}
}

func requireValidation(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr
}

func TestProcessSquareCropResizesToOutput(t *testing.T) {
	data := encodePNG(t, 300, 200, color.NRGBA{R: 255, A: 255})

	out, err := Process(data, "image/png", avatarOptions())
	require.NoError(t, err)

	assert.Equal(t, ContentTypeJPEG, out.ContentType)
	assert.Equal(t, "jpg", out.Extension)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 512, cfg.Height)
}

func TestProcessFitKeepsAspectAndNeverUpscales(t *testing.T) {
	opts := Options{MaxBytes: 5 * 1024 * 1024, MaxDimension: 4096, OutputSize: 800, Mode: Fit}

	out, err := Process(encodePNG(t, 1600, 400, color.Black), "image/png", opts)
	require.NoError(t, err)
	assert.Equal(t, 800, out.Width)
	assert.Equal(t, 200, out.Height)

	out, err = Process(encodePNG(t, 100, 50, color.Black), "image/png", opts)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Width)
	assert.Equal(t, 50, out.Height)
}

func TestProcessFlattensTransparencyOntoWhite(t *testing.T) {
	data := encodePNG(t, 10, 10, color.NRGBA{})

	out, err := Process(data, "image/png", Options{OutputSize: 10, Mode: Fit})
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestProcessRejectsOversizedFile(t *testing.T) {
	opts := avatarOptions()
	opts.MaxBytes = 10

	_, err := Process(encodePNG(t, 10, 10, color.Black), "image/png", opts)
	verr := requireValidation(t, err)
	assert.Contains(t, verr.Message, "size")
}

func TestProcessRejectsUnsupportedType(t *testing.T) {
	_, err := Process([]byte("%PDF-1.4"), "application/pdf", avatarOptions())
	verr := requireValidation(t, err)
	assert.Contains(t, verr.Message, "unsupported")
}

func TestProcessRejectsMismatchedContent(t *testing.T) {
	_, err := Process(encodePNG(t, 4, 4, color.Black), "image/jpeg", avatarOptions())
	verr := requireValidation(t, err)
	assert.Contains(t, verr.Message, "unsupported")
}

func TestProcessRejectsCorruptImage(t *testing.T) {
	_, err := Process([]byte("not an image at all"), "image/png", avatarOptions())
	verr := requireValidation(t, err)
	assert.Equal(t, "Invalid or corrupted image file", verr.Message)
}

func TestProcessRejectsHugeDimensions(t *testing.T) {
	opts := avatarOptions()
	opts.MaxDimension = 16

	_, err := Process(encodePNG(t, 32, 8, color.Black), "image/png", opts)
	verr := requireValidation(t, err)
	assert.Contains(t, verr.Message, "dimensions")
}

func TestNormalizeContentType(t *testing.T) {
	assert.Equal(t, "image/png", NormalizeContentType(" Image/PNG; charset=binary"))
}

func TestExtensionMapping(t *testing.T) {
	assert.Equal(t, "webp", ExtensionFor(ContentTypeWebP))
	assert.Equal(t, "jpg", ExtensionFor(ContentTypeJPEG))

	ct, ok := ContentTypeFor("jpg")
	assert.True(t, ok)
	assert.Equal(t, ContentTypeJPEG, ct)
	_, ok = ContentTypeFor("png")
	assert.False(t, ok)
}
