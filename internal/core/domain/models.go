package domain

import (
	"encoding/json"
	"time"
)

// ImageFormat is the encoding applied to image artifacts.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
)

// LocationKind says where the remote service stored an output file.
type LocationKind string

const (
	LocationOutput LocationKind = "output"
	LocationTemp   LocationKind = "temp"
	LocationOther  LocationKind = "other"
)

// ParseLocationKind maps the remote "type" field onto a LocationKind.
// Anything unrecognised is LocationOther.
func ParseLocationKind(s string) LocationKind {
	switch LocationKind(s) {
	case LocationOutput, LocationTemp:
		return LocationKind(s)
	default:
		return LocationOther
	}
}

// JobRequest is the immutable input of one execution.
type JobRequest struct {
	Workflow     json.RawMessage // job-graph document, forwarded untouched
	AllowedTypes map[string]bool // lower-case extensions without dot
	OutputFormat ImageFormat
	JPEGQuality  int
	Timeout      time.Duration
}

// TimeoutMinutes returns the timeout in whole minutes as configured by the caller.
func (r JobRequest) TimeoutMinutes() int {
	return int(r.Timeout / time.Minute)
}

// JobHandle identifies one submitted execution.
type JobHandle struct {
	PromptID    string
	SubmittedAt time.Time
}

// StatusState is the poller-visible state of a job.
type StatusState string

const (
	StatePending   StatusState = "pending"
	StateCompleted StatusState = "completed"
	StateFailed    StatusState = "failed"
)

// NodeOutput is the raw output object of one graph node, in payload order.
type NodeOutput struct {
	NodeID string
	Output json.RawMessage
}

// JobStatus is one observation of the remote job.
type JobStatus struct {
	State   StatusState
	Absent  bool         // job not (yet) listed in history
	Outputs []NodeOutput // set when State == StateCompleted
	Reason  string       // set when State == StateFailed
}

// OutputDescriptor identifies a retrievable output file.
type OutputDescriptor struct {
	Filename  string       `json:"filename"`
	Subfolder string       `json:"subfolder"`
	Type      LocationKind `json:"type"`
}

// Artifact is a descriptor's downloaded content before final formatting.
type Artifact struct {
	Descriptor OutputDescriptor
	Data       []byte
	Extension  string
}

// ContentKind classifies record content for downstream consumers.
type ContentKind string

const (
	ContentImage    ContentKind = "image"
	ContentAudio    ContentKind = "audio"
	ContentDocument ContentKind = "document"
)

// OutputRecord is the terminal unit of a job: either content or an error.
type OutputRecord struct {
	Descriptor  OutputDescriptor
	Content     []byte
	FileType    string // final extension
	MIMEType    string
	ContentKind ContentKind
	Size        string // e.g. "12.3 KB"
	Error       string
}

// OK reports whether the record carries content.
func (r OutputRecord) OK() bool {
	return r.Error == ""
}

// RecordMetadata is the structured view of an OutputRecord.
type RecordMetadata struct {
	Filename  string       `json:"filename"`
	Subfolder string       `json:"subfolder"`
	Type      LocationKind `json:"type"`
	FileType  string       `json:"fileType,omitempty"`
	MIMEType  string       `json:"mimeType,omitempty"`
	Size      string       `json:"size,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Metadata returns the structured view of the record.
func (r OutputRecord) Metadata() RecordMetadata {
	return RecordMetadata{
		Filename:  r.Descriptor.Filename,
		Subfolder: r.Descriptor.Subfolder,
		Type:      r.Descriptor.Type,
		FileType:  r.FileType,
		MIMEType:  r.MIMEType,
		Size:      r.Size,
		Error:     r.Error,
	}
}

// JobResult holds the outcome of a completed job.
type JobResult struct {
	PromptID    string
	Records     []OutputRecord
	SubmittedAt time.Time
	CompletedAt time.Time
}
