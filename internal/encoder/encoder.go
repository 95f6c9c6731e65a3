// Package encoder renders text into QR code PNG images.
package encoder

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEncodingFailed is returned when the text cannot be rendered as a QR code,
// for example when it is too long for the largest symbol version.
var ErrEncodingFailed = errors.New("encoding failed")

// DefaultSize is the width and height of generated images in pixels.
const DefaultSize = 256

// QRCodeEncoder encodes text into square PNG images.
type QRCodeEncoder struct {
	// Size is the image side in pixels.
	Size int
	// Level is the error recovery level.
	Level qrcode.RecoveryLevel
}

// New returns an encoder producing size×size PNGs at medium recovery level.
// A non-positive size falls back to DefaultSize.
func New(size int) *QRCodeEncoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &QRCodeEncoder{Size: size, Level: qrcode.Medium}
}

// Encode renders text as a PNG.
func (e *QRCodeEncoder) Encode(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, e.Level, e.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodingFailed, err)
	}
	return png, nil
}
