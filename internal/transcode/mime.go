package transcode

import "strings"

// DefaultMIMEType is used for extensions missing from the table.
const DefaultMIMEType = "application/octet-stream"

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"gif":  "image/gif",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"json": "application/json",
	"txt":  "text/plain",
}

// MIMEType looks up the MIME type of an extension.
func MIMEType(ext string) string {
	if m, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return m
	}
	return DefaultMIMEType
}

// Extension returns the lower-cased suffix after the last '.', or "".
func Extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// IsImage reports whether ext is re-encoded by the transcoder.
func IsImage(ext string) bool {
	switch strings.ToLower(ext) {
	case "png", "jpg", "jpeg":
		return true
	}
	return false
}
