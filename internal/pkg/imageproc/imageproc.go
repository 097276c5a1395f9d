// Package imageproc validates uploaded images and re-encodes them into a
// bounded, metadata-free JPEG.
package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeWebP = "image/webp"

	jpegQuality = 85
)

// AllowedContentTypes lists the upload types accepted by Process.
var AllowedContentTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var formatByContentType = map[string]string{
	"image/jpeg": "jpeg",
	"image/jpg":  "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Mode selects how the source is fitted into the output size.
type Mode int

const (
	// Fit scales the image down to fit inside an OutputSize box and never upscales.
	Fit Mode = iota
	// SquareCrop center-crops to a square and scales to exactly OutputSize.
	SquareCrop
)

// Options bounds what an upload may be and what it becomes.
type Options struct {
	MaxBytes     int64
	MaxDimension int
	OutputSize   int
	Mode         Mode
}

// Processed is the re-encoded image.
type Processed struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// ValidationError is returned for uploads a client should fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ExtensionFor maps a stored content type to the file extension used in URLs.
func ExtensionFor(contentType string) string {
	if contentType == ContentTypeWebP {
		return "webp"
	}
	return "jpg"
}

// ContentTypeFor maps a URL extension back to its content type.
func ContentTypeFor(ext string) (string, bool) {
	switch strings.ToLower(ext) {
	case "webp":
		return ContentTypeWebP, true
	case "jpg":
		return ContentTypeJPEG, true
	}
	return "", false
}

// NormalizeContentType strips parameters and lower-cases a Content-Type header.
func NormalizeContentType(raw string) string {
	ct := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// Process validates data against opts and returns a JPEG rendition.
func Process(data []byte, declaredType string, opts Options) (*Processed, error) {
	if len(data) == 0 {
		return nil, invalid("Empty file uploaded")
	}
	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, invalid("File size exceeds maximum allowed size of %dMB", opts.MaxBytes/(1024*1024))
	}

	contentType := NormalizeContentType(declaredType)
	wantFormat, ok := formatByContentType[contentType]
	if !ok {
		return nil, invalid("Invalid file type: unsupported content type %q. Allowed types: %s",
			contentType, strings.Join(AllowedContentTypes, ", "))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("Invalid or corrupted image file")
	}
	if format != wantFormat {
		return nil, invalid("Invalid file type: unsupported content, file is %s but declared %s", format, contentType)
	}
	if opts.MaxDimension > 0 && (cfg.Width > opts.MaxDimension || cfg.Height > opts.MaxDimension) {
		return nil, invalid("Image dimensions exceed maximum of %dx%d", opts.MaxDimension, opts.MaxDimension)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("Invalid or corrupted image file")
	}

	var dst *image.RGBA
	switch opts.Mode {
	case SquareCrop:
		dst = squareCrop(src, opts.OutputSize)
	default:
		dst = fit(src, opts.OutputSize)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	b := dst.Bounds()
	return &Processed{
		Data:        out.Bytes(),
		ContentType: ContentTypeJPEG,
		Extension:   "jpg",
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

func squareCrop(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)
	if size <= 0 {
		size = side
	}
	return scaleOntoWhite(src, crop, size, size)
}

func fit(src image.Image, box int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if box > 0 && (w > box || h > box) {
		if w >= h {
			h = max(1, h*box/w)
			w = box
		} else {
			w = max(1, w*box/h)
			h = box
		}
	}
	return scaleOntoWhite(src, b, w, h)
}

// scaleOntoWhite draws the srcRect region of src into a w x h canvas
// pre-filled with white, flattening any transparency.
func scaleOntoWhite(src image.Image, srcRect image.Rectangle, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Over, nil)
	return dst
}
