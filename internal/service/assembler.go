package service

import (
	"fmt"
	"strings"

	"comfyrun/internal/core/domain"
)

// Assemble turns outcomes into output records, one per outcome, same order.
func Assemble(outcomes []Outcome) []domain.OutputRecord {
	records := make([]domain.OutputRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			records = append(records, domain.OutputRecord{
				Descriptor: o.Descriptor,
				Error:      o.Err.Error(),
			})
			continue
		}
		records = append(records, domain.OutputRecord{
			Descriptor:  o.Descriptor,
			Content:     o.Final.Data,
			FileType:    o.Final.Extension,
			MIMEType:    o.Final.MIMEType,
			ContentKind: contentKind(o.Final.MIMEType),
			Size:        FormatSize(len(o.Final.Data)),
		})
	}
	return records
}

// FormatSize renders n bytes as kilobytes with one decimal, e.g. "12.3 KB".
func FormatSize(n int) string {
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

func contentKind(mimeType string) domain.ContentKind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return domain.ContentImage
	case strings.HasPrefix(mimeType, "audio/"):
		return domain.ContentAudio
	default:
		return domain.ContentDocument
	}
}
