package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
)

// Output formats understood by Encode and Save.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)

// DefaultJPEGQuality is used when a caller passes quality 0.
const DefaultJPEGQuality = 90

// ErrUnsupportedFormat is returned for output formats other than PNG, JPEG
// and WebP.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// EncodedImage is an image ready to ship over JSON.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// NormalizeFormat maps user spellings ("jpg", "PNG", "") to a format
// constant. The empty string selects PNG.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// FormatFromPath picks the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	return NormalizeFormat(filepath.Ext(path))
}

// MimeType returns the MIME type of a normalized format.
func MimeType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// EncodeTo writes img to w. quality only applies to JPEG; 0 selects
// DefaultJPEGQuality. WebP output is lossless.
func EncodeTo(w io.Writer, img image.Image, format string, quality int) error {
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	switch format {
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	case FormatJPEG:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		err = imaging.Encode(w, img, imaging.PNG)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return nil
}

// Encode renders img in the given format and base64 encodes it.
func Encode(img image.Image, format string, quality int) (*EncodedImage, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := EncodeTo(&buf, img, format, quality); err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    MimeType(format),
	}, nil
}

// Save writes img to path, choosing the format from the extension.
func Save(img image.Image, path string, quality int) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeTo(f, img, format, quality); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
