package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"comfyrun/internal/core/schema"
)

const (
	DefaultJPEGQuality    = 80
	DefaultTimeoutMinutes = 30
)

// DefaultAllowedTypes is used when the caller names no file types.
var DefaultAllowedTypes = []string{"png", "jpg"}

// SupportedTypes are the file types a caller may request.
var SupportedTypes = map[string]bool{"png": true, "jpg": true, "mp3": true}

// RunParams are the caller-facing parameters of one execution.
// Empty or nil fields select the defaults.
type RunParams struct {
	Workflow         string
	AllowedFileTypes []string
	OutputFormat     string
	JPEGQuality      *int
	TimeoutMinutes   *int
}

// Int returns a pointer to v, for the optional RunParams fields.
func Int(v int) *int {
	return &v
}

// NewJobRequest validates params and applies defaults.
func NewJobRequest(p RunParams) (JobRequest, error) {
	wf := strings.TrimSpace(p.Workflow)
	if wf == "" {
		return JobRequest{}, InvalidRequest("workflow is required")
	}
	if err := schema.Validate(schema.Workflow, []byte(wf)); err != nil {
		return JobRequest{}, NewJobError(ErrInvalidRequest, "workflow must be a JSON object", err)
	}

	types := p.AllowedFileTypes
	if len(types) == 0 {
		types = DefaultAllowedTypes
	}
	allowed := make(map[string]bool, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
		if !SupportedTypes[t] {
			return JobRequest{}, InvalidRequest(fmt.Sprintf("unsupported file type %q", t))
		}
		allowed[t] = true
	}

	format := ImageFormat(strings.ToLower(p.OutputFormat))
	switch format {
	case "":
		format = FormatJPEG
	case "jpg":
		format = FormatJPEG
	case FormatJPEG, FormatPNG:
	default:
		return JobRequest{}, InvalidRequest(fmt.Sprintf("unsupported output format %q", p.OutputFormat))
	}

	quality := DefaultJPEGQuality
	if p.JPEGQuality != nil {
		quality = *p.JPEGQuality
	}
	if quality < 1 || quality > 100 {
		return JobRequest{}, InvalidRequest(fmt.Sprintf("jpeg quality %d out of range 1-100", quality))
	}

	minutes := DefaultTimeoutMinutes
	if p.TimeoutMinutes != nil {
		minutes = *p.TimeoutMinutes
	}
	if minutes < 1 {
		return JobRequest{}, InvalidRequest("timeout must be a positive number of minutes")
	}

	return JobRequest{
		Workflow:     json.RawMessage(wf),
		AllowedTypes: allowed,
		OutputFormat: format,
		JPEGQuality:  quality,
		Timeout:      time.Duration(minutes) * time.Minute,
	}, nil
}
