// Package qr renders property labels as PNG QR codes.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length of rendered images in pixels
const DefaultSize = 300

// Renderer turns a payload into an image the client can display directly
type Renderer interface {
	Render(content string) (string, error)
}

// PNGRenderer encodes payloads at the highest error correction level and
// returns them as base64 PNG data URLs.
type PNGRenderer struct {
	Size int
}

// NewPNGRenderer returns a renderer producing DefaultSize images
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Size: DefaultSize}
}

// Render implements Renderer
func (r *PNGRenderer) Render(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Highest, r.Size)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
