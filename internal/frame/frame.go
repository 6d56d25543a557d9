// Package frame turns the webcam payload posted by the browser into JPEG
// bytes a landmark provider accepts.
package frame

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
)

const (
	DefaultMaxBytes    = 5 * 1024 * 1024
	DefaultMaxWidth    = 640
	DefaultMaxPixels   = 4096 * 4096
	DefaultJPEGQuality = 85
)

// Options controls decoding limits
type Options struct {
	// MaxBytes caps the decoded (binary) payload size
	MaxBytes int
	// MaxWidth downscales wider frames, keeping the aspect ratio. Zero disables it.
	MaxWidth int
	// MaxPixels caps the width*height declared in the image header. Zero disables it.
	MaxPixels   int
	JPEGQuality int
}

func DefaultOptions() Options {
	return Options{
		MaxBytes:    DefaultMaxBytes,
		MaxWidth:    DefaultMaxWidth,
		MaxPixels:   DefaultMaxPixels,
		JPEGQuality: DefaultJPEGQuality,
	}
}

// Frame is a decoded, normalized webcam frame
type Frame struct {
	JPEG   []byte
	Width  int
	Height int
	// Format is the source encoding reported by image.Decode (jpeg, png, webp)
	Format string
	Scaled bool
}

// Decode parses a data URL or bare base64 string into a normalized JPEG frame.
// Every failure is a domain.ErrInvalidFrame or domain.ErrFrameTooLarge.
func Decode(payload string, opts Options) (*Frame, error) {
	data := StripDataURL(strings.TrimSpace(payload))
	if data == "" {
		return nil, domain.ErrBadRequest
	}

	if opts.MaxBytes > 0 && base64.StdEncoding.DecodedLen(len(data)) > opts.MaxBytes+2 {
		return nil, domain.ErrFrameTooLarge
	}

	raw, err := decodeBase64(data)
	if err != nil {
		return nil, domain.ErrInvalidFrame.WithError(err)
	}
	if opts.MaxBytes > 0 && len(raw) > opts.MaxBytes {
		return nil, domain.ErrFrameTooLarge
	}

	// the header is checked before image.Decode allocates the pixel buffer
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.ErrInvalidFrame.WithError(fmt.Errorf("decode image header: %w", err))
	}
	if opts.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(opts.MaxPixels) {
		return nil, domain.ErrFrameTooLarge.WithError(fmt.Errorf("image is %dx%d", cfg.Width, cfg.Height))
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, domain.ErrInvalidFrame.WithError(fmt.Errorf("decode image: %w", err))
	}

	scaled := false
	if opts.MaxWidth > 0 && img.Bounds().Dx() > opts.MaxWidth {
		img = imaging.Resize(img, opts.MaxWidth, 0, imaging.Linear)
		scaled = true
	}

	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, domain.ErrInvalidFrame.WithError(fmt.Errorf("encode jpeg: %w", err))
	}

	bounds := img.Bounds()
	return &Frame{
		JPEG:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
		Scaled: scaled,
	}, nil
}

// StripDataURL removes a "data:<mime>;base64," prefix when present
func StripDataURL(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}

	comma := strings.IndexByte(payload, ',')
	if comma < 0 {
		return ""
	}
	return payload[comma+1:]
}

func decodeBase64(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return raw, nil
	}

	raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
	if rawErr != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return raw, nil
}
