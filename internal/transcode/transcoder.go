// Package transcode normalizes downloaded artifacts into the requested encoding.
package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
)

var _ ports.Transcoder = (*Transcoder)(nil)

// Transcoder re-encodes image artifacts and passes everything else through.
type Transcoder struct{}

// New creates a Transcoder.
func New() *Transcoder {
	return &Transcoder{}
}

// Transcode returns the final bytes, extension and MIME type of a.
func (t *Transcoder) Transcode(a domain.Artifact, format domain.ImageFormat, quality int) (ports.Transcoded, error) {
	if !IsImage(a.Extension) {
		return ports.Transcoded{
			Data:      a.Data,
			Extension: a.Extension,
			MIMEType:  MIMEType(a.Extension),
		}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(a.Data))
	if err != nil {
		return ports.Transcoded{}, fmt.Errorf("decode %s: %w", a.Descriptor.Filename, err)
	}

	var buf bytes.Buffer
	switch format {
	case domain.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return ports.Transcoded{}, fmt.Errorf("encode png: %w", err)
		}
		return ports.Transcoded{Data: buf.Bytes(), Extension: "png", MIMEType: "image/png"}, nil
	case domain.FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = domain.DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return ports.Transcoded{}, fmt.Errorf("encode jpeg: %w", err)
		}
		return ports.Transcoded{Data: buf.Bytes(), Extension: "jpeg", MIMEType: "image/jpeg"}, nil
	default:
		return ports.Transcoded{}, fmt.Errorf("unsupported output format %q", format)
	}
}
